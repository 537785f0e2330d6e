// Package monitoring turns a running experiment into a small web server so
// the run can be observed and paused from outside the process.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/hfxlab/tempo/agent"
	"github.com/hfxlab/tempo/runner"
)

// A Monitor exposes the state of a run over HTTP.
type Monitor struct {
	runner      *runner.Runner
	agents      []*agent.TimedAgent
	startedAt   time.Time
	portNumber  int
	openBrowser bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{startedAt: time.Now()}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// rejected and replaced with a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server. "+
				"Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor URL in the default
// browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterRunner registers the runner driving the run, enabling the pause
// and continue endpoints.
func (m *Monitor) RegisterRunner(r *runner.Runner) {
	m.runner = r
}

// RegisterAgent registers an agent to be monitored.
func (m *Monitor) RegisterAgent(a *agent.TimedAgent) {
	m.agents = append(m.agents, a)
}

// StartServer starts the monitor web server in the background.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/pause", m.pauseRun)
	r.HandleFunc("/api/continue", m.continueRun)
	r.HandleFunc("/api/list_agents", m.listAgents)
	r.HandleFunc("/api/agent/{name}", m.agentDetails)
	r.HandleFunc("/api/progress", m.listProgress)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring run at %s\n", url)

	go func() {
		dieOnErr(http.Serve(listener, r))
	}()

	if m.openBrowser {
		_ = browser.OpenURL(url)
	}
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	elapsed := time.Since(m.startedAt).Seconds()
	fmt.Fprintf(w, "{\"elapsed\":%.6f}", elapsed)
}

func (m *Monitor) pauseRun(w http.ResponseWriter, _ *http.Request) {
	if m.runner == nil {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	m.runner.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueRun(w http.ResponseWriter, _ *http.Request) {
	if m.runner == nil {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	m.runner.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) listAgents(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, a := range m.agents {
		if i > 0 {
			fmt.Fprint(w, ",")
		}
		fmt.Fprintf(w, "\"%s\"", a.Name())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) agentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	a := m.findAgentOr404(w, name)
	if a == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(a)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type agentProgress struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Fired  int    `json:"fired"`
}

func (m *Monitor) listProgress(w http.ResponseWriter, _ *http.Request) {
	progress := make([]agentProgress, 0, len(m.agents))
	for _, a := range m.agents {
		progress = append(progress, agentProgress{
			Name:   a.Name(),
			Status: a.Status().String(),
			Fired:  a.Fired(),
		})
	}

	bytes, err := json.Marshal(progress)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) findAgentOr404(
	w http.ResponseWriter,
	name string,
) *agent.TimedAgent {
	for _, a := range m.agents {
		if a.Name() == name {
			return a
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Agent not found"))
	dieOnErr(err)

	return nil
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
