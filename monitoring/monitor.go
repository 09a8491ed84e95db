// Package monitoring serves the state of a running bridge model over HTTP.
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
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/monitoring/web"
	"github.com/sarchlab/a8xio/sim/id"
	"github.com/sarchlab/a8xio/sim/naming"
	"github.com/sarchlab/a8xio/sim/timing"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// A Controller runs the model and lets the monitor pause it and read it
// between ticks.
type Controller interface {
	timing.TimeTeller
	Pause()
	Continue()
	Inspect(f func())
}

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	controller Controller
	bridge     *hostbus.Comp
	components []naming.Named
	portNumber int
	url        string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// minPortNumber is the lowest port the server may be pinned to. Lower
// numbers fall back to a random port.
const minPortNumber = 1000

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < minPortNumber {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterRunner registers what drives the simulation.
func (m *Monitor) RegisterRunner(c Controller) {
	m.controller = c
}

// RegisterBridge registers the bridge and its link as components, and serves
// the aperture and link state.
func (m *Monitor) RegisterBridge(c *hostbus.Comp) {
	m.bridge = c
	m.RegisterComponent(c)
	m.RegisterComponent(c.Link())
}

// RegisterComponent register a component to be monitored.
func (m *Monitor) RegisterComponent(c naming.Named) {
	m.components = append(m.components, c)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        id.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.continueRun)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/apertures", m.listApertures)
	r.HandleFunc("/api/link", m.linkState)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server with a custom port if wanted.
func (m *Monitor) StartServer() {
	r := m.Router()

	listener, err := net.Listen("tcp", m.listenAddress())
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()
}

func (m *Monitor) listenAddress() string {
	if m.portNumber < minPortNumber {
		return ":0"
	}

	return ":" + strconv.Itoa(m.portNumber)
}

// URL returns the address of the server once it is started.
func (m *Monitor) URL() string {
	return m.url
}

func (m *Monitor) inspect(f func()) {
	if m.controller == nil {
		f()
		return
	}

	m.controller.Inspect(f)
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	if m.controller == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	m.controller.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueRun(w http.ResponseWriter, _ *http.Request) {
	if m.controller == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	m.controller.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type nowRsp struct {
	Now  float64 `json:"now"`
	Tick uint64  `json:"tick"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	rsp := nowRsp{}
	if m.controller != nil {
		rsp.Now = float64(m.controller.CurrentTime())
		rsp.Tick = m.controller.TickCount()
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, len(m.components))
	for i, c := range m.components {
		names[i] = c.Name()
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	var err error
	m.inspect(func() { err = serializer.Serialize(w) })
	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.inspect(func() { err = serializer.Serialize(w) })
	dieOnErr(err)
}

func (m *Monitor) bridgeOr404(w http.ResponseWriter) *hostbus.Comp {
	if m.bridge == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("No bridge registered"))
		dieOnErr(err)
	}

	return m.bridge
}

type apertureRsp struct {
	Name       string `json:"name"`
	Index      int    `json:"index"`
	Armed      bool   `json:"armed"`
	StartPage  string `json:"start_page"`
	EndPage    string `json:"end_page"`
	RemoteBase string `json:"remote_base"`
}

func (m *Monitor) listApertures(w http.ResponseWriter, _ *http.Request) {
	bridge := m.bridgeOr404(w)
	if bridge == nil {
		return
	}

	var rsp []apertureRsp
	m.inspect(func() {
		for _, c := range bridge.Bank().Configs() {
			name := naming.BuildNameWithIndex(bridge.Name(), "Aperture", c.Index)
			rsp = append(rsp, apertureRsp{
				Name:       name,
				Index:      c.Index,
				Armed:      c.Armed,
				StartPage:  fmt.Sprintf("0x%02X", c.StartPage),
				EndPage:    fmt.Sprintf("0x%02X", c.EndPage),
				RemoteBase: fmt.Sprintf("0x%08X", c.RemoteBase),
			})
		}
	})

	writeJSON(w, rsp)
}

type linkRsp struct {
	State         string `json:"state"`
	RequestToSend bool   `json:"request_to_send"`
	OutputEnable  bool   `json:"output_enable"`
	DataStrobe    bool   `json:"data_strobe"`
	Data          uint8  `json:"data"`
	InFlight      string `json:"in_flight,omitempty"`

	Translator    string `json:"translator"`
	Aperture      int    `json:"aperture"`
	RemoteAddress string `json:"remote_address,omitempty"`
}

func (m *Monitor) linkState(w http.ResponseWriter, _ *http.Request) {
	bridge := m.bridgeOr404(w)
	if bridge == nil {
		return
	}

	var rsp linkRsp
	m.inspect(func() {
		link := bridge.Link()
		out := link.Outputs()
		tr := bridge.Translator()

		rsp = linkRsp{
			State:         link.State().String(),
			RequestToSend: out.RequestToSend,
			OutputEnable:  out.OutputEnable,
			DataStrobe:    out.DataStrobe,
			Data:          out.Data,
			Translator:    tr.State().String(),
			Aperture:      tr.Aperture(),
		}

		if !link.IsIdle() {
			rsp.InFlight = link.InFlight().String()
		}

		if req := tr.Request(); req.Valid {
			rsp.RemoteAddress = fmt.Sprintf("0x%08X", req.RemoteAddress)
		}
	})

	writeJSON(w, rsp)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) naming.Named {
	var component naming.Named
	for _, c := range m.components {
		if c.Name() == name {
			component = c
		}
	}

	if component == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Component not found"))
		dieOnErr(err)
	}

	return component
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
