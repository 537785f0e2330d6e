package timeline

import (
	"context"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

// fireRecord notes the virtual time an action fired at.
type fireRecord struct {
	name string
	at   time.Time
}

func recordingAction(name string, clock Clock, out *[]fireRecord) Action {
	return NamedAction(name, func() error {
		*out = append(*out, fireRecord{name: name, at: clock.Now()})
		return nil
	})
}

// drainAll pulls and attempts every firing until the merger is exhausted.
func drainAll(m *Merger) {
	for {
		f, err := m.Next(context.Background())
		if err != nil {
			Expect(err).To(MatchError(ErrExhausted))
			return
		}
		Expect(f.Action.Attempt()).To(Succeed())
	}
}

var _ = Describe("Merger", func() {
	var (
		mockCtrl *gomock.Controller
		clock    *VirtualClock
		fires    []fireRecord
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = NewVirtualClock()
		fires = nil
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should merge schedules in due-time order", func() {
		start := clock.Now()
		a := Ticks(100*time.Millisecond, recordingAction("a", clock, &fires), 3)
		b := Ticks(200*time.Millisecond, recordingAction("b", clock, &fires), 1)

		m := NewMerger(clock, a, b)
		drainAll(m)

		Expect(fires).To(HaveLen(4))

		names := make([]string, 0, len(fires))
		for _, f := range fires {
			names = append(names, f.name)
		}
		Expect(names).To(Equal([]string{"a", "a", "b", "a"}))

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			200 * time.Millisecond,
			300 * time.Millisecond,
		}
		for i, f := range fires {
			Expect(f.at.Sub(start)).To(BeNumerically(
				"~", expected[i], 2*time.Millisecond))
		}
	})

	It("should deliver non-decreasing due times for arbitrary schedules", func() {
		rng := rand.New(rand.NewSource(42))

		total := 0
		schedules := make([]Schedule, 10)
		for i := range schedules {
			n := rng.Intn(20) + 1
			interval := time.Duration(rng.Intn(50)+1) * time.Millisecond
			schedules[i] = Ticks(interval, NamedAction("noop",
				func() error { return nil }), n)
			total += n
		}

		m := NewMerger(clock, schedules...)

		count := 0
		var lastDue time.Time
		for {
			f, err := m.Next(context.Background())
			if err != nil {
				break
			}
			count++
			Expect(f.Due.Before(lastDue)).To(BeFalse())
			lastDue = f.Due
		}

		Expect(count).To(Equal(total))
		Expect(m.HasNext()).To(BeFalse())
	})

	It("should break same-instant ties in registration order", func() {
		a := Steps(Step{Action: recordingAction("a", clock, &fires)})
		b := Steps(Step{Action: recordingAction("b", clock, &fires)})
		c := Steps(Step{Action: recordingAction("c", clock, &fires)})

		m := NewMerger(clock, a, b, c)

		for i := 0; i < 3; i++ {
			f, ok := m.NextReady()
			Expect(ok).To(BeTrue())
			Expect(f.Source).To(Equal(i))
			Expect(f.Action.Attempt()).To(Succeed())
		}

		Expect(fires[0].name).To(Equal("a"))
		Expect(fires[1].name).To(Equal("b"))
		Expect(fires[2].name).To(Equal("c"))
		Expect(m.HasNext()).To(BeFalse())
	})

	It("should reproduce a single schedule's own timing", func() {
		start := clock.Now()
		act := recordingAction("x", clock, &fires)
		sch := Steps(
			Step{Delay: 50 * time.Millisecond, Action: act},
			Step{Delay: 100 * time.Millisecond, Action: act},
			Step{Delay: 150 * time.Millisecond, Action: act},
		)

		m := NewMerger(clock, sch)
		drainAll(m)

		Expect(fires).To(HaveLen(3))
		expected := []time.Duration{
			50 * time.Millisecond,
			150 * time.Millisecond,
			300 * time.Millisecond,
		}
		for i, f := range fires {
			Expect(f.at.Sub(start)).To(BeNumerically(
				"~", expected[i], 2*time.Millisecond))
		}
	})

	It("should keep cumulative timing error bounded over many ticks", func() {
		const ticks = 500
		const interval = 10 * time.Millisecond

		start := clock.Now()
		m := NewMerger(clock,
			Ticks(interval, NamedAction("tick", func() error { return nil }), ticks))

		var lastFire time.Time
		for {
			_, err := m.Next(context.Background())
			if err != nil {
				break
			}
			lastFire = clock.Now()
		}

		// The error after the last fire must not grow with the tick
		// count: each fire re-anchors on its intended due time.
		ideal := start.Add(ticks * interval)
		Expect(lastFire.Sub(ideal).Abs()).To(
			BeNumerically("<", 2*time.Millisecond))
	})

	It("should fire zero-delay entries on the next drain", func() {
		m := NewMerger(clock,
			Steps(Step{Action: NamedAction("now", func() error { return nil })}))

		before := clock.Now()
		f, ok := m.NextReady()
		Expect(ok).To(BeTrue())
		Expect(f.Due).To(Equal(before))
		Expect(clock.Now()).To(Equal(before))
	})

	It("should not pop entries before they are due", func() {
		m := NewMerger(clock,
			Ticks(50*time.Millisecond, NamedAction("later",
				func() error { return nil }), 1))

		_, ok := m.NextReady()
		Expect(ok).To(BeFalse())

		clock.Advance(50 * time.Millisecond)

		f, ok := m.NextReady()
		Expect(ok).To(BeTrue())
		Expect(f.Overshoot).To(Equal(time.Duration(0)))
	})

	It("should discard schedules that are exhausted from the start", func() {
		m := NewMerger(clock, Steps())

		Expect(m.HasNext()).To(BeFalse())

		_, err := m.Next(context.Background())
		Expect(err).To(MatchError(ErrExhausted))
	})

	It("should stop waiting when the context is cancelled", func() {
		sch := NewMockSchedule(mockCtrl)
		act := NewMockAction(mockCtrl)

		// The initial pull is the only time the cursor may be advanced.
		sch.EXPECT().Next().Return(100*time.Millisecond, Action(act), true)

		m := NewMerger(clock, sch)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Next(ctx)
		Expect(err).To(MatchError(context.Canceled))

		// The pending entry must be intact, not half-advanced.
		Expect(m.HasNext()).To(BeTrue())
	})

	It("should panic when a schedule yields a negative delay", func() {
		sch := NewMockSchedule(mockCtrl)
		act := NewMockAction(mockCtrl)
		sch.EXPECT().Next().Return(-time.Millisecond, Action(act), true)

		Expect(func() {
			NewMerger(clock, sch)
		}).To(Panic())
	})
})
