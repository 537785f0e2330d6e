package timeline

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VirtualClock", func() {
	var clock *VirtualClock

	BeforeEach(func() {
		clock = NewVirtualClock()
	})

	It("should advance instantly on sleep", func() {
		start := clock.Now()

		err := clock.Sleep(context.Background(), 3*time.Second)

		Expect(err).To(BeNil())
		Expect(clock.Now()).To(Equal(start.Add(3 * time.Second)))
	})

	It("should advance manually", func() {
		start := clock.Now()

		clock.Advance(250 * time.Millisecond)

		Expect(clock.Now()).To(Equal(start.Add(250 * time.Millisecond)))
	})

	It("should not advance when the sleep is cancelled", func() {
		start := clock.Now()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := clock.Sleep(ctx, 3*time.Second)

		Expect(err).To(MatchError(context.Canceled))
		Expect(clock.Now()).To(Equal(start))
	})
})

var _ = Describe("Schedules", func() {
	var act Action

	BeforeEach(func() {
		act = NamedAction("noop", func() error { return nil })
	})

	It("should yield steps in order and then stop", func() {
		sch := Steps(
			Step{Delay: time.Second, Action: act},
			Step{Delay: 2 * time.Second, Action: act},
		)

		delay, _, ok := sch.Next()
		Expect(ok).To(BeTrue())
		Expect(delay).To(Equal(time.Second))

		delay, _, ok = sch.Next()
		Expect(ok).To(BeTrue())
		Expect(delay).To(Equal(2 * time.Second))

		_, _, ok = sch.Next()
		Expect(ok).To(BeFalse())
	})

	It("should yield a fixed number of ticks", func() {
		sch := Ticks(time.Second, act, 2)

		for i := 0; i < 2; i++ {
			delay, a, ok := sch.Next()
			Expect(ok).To(BeTrue())
			Expect(delay).To(Equal(time.Second))
			Expect(a.Name()).To(Equal("noop"))
		}

		_, _, ok := sch.Next()
		Expect(ok).To(BeFalse())
	})

	It("should tick forever when the count is negative", func() {
		sch := Ticks(time.Second, act, -1)

		for i := 0; i < 10000; i++ {
			_, _, ok := sch.Next()
			Expect(ok).To(BeTrue())
		}
	})
})
