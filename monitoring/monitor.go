// Package monitoring exposes finished simulation runs over HTTP so a sweep
// can be inspected from a browser while it is still running.
package monitoring

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachesim/simulation"
)

// A Monitor serves the reports of completed runs.
type Monitor struct {
	portNumber int

	lock    sync.Mutex
	reports []simulation.Report
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port the server listens on. Ports below 1000 are
// rejected and replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server, "+
				"using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// AddReport publishes the report of a completed run.
func (m *Monitor) AddReport(r simulation.Report) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.reports = append(m.reports, r)
}

// StartServer starts serving in the background and opens the dashboard URL
// in a browser.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/reports", m.listReports)
	r.HandleFunc("/api/report/{index}", m.reportDetail)
	r.HandleFunc("/api/resource", m.listResources)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d/api/reports",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring sweep with %s\n", url)

	go func() {
		dieOnErr(http.Serve(listener, r))
	}()

	// Opening the browser is a convenience only.
	_ = browser.OpenURL(url)
}

func (m *Monitor) listReports(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	defer m.lock.Unlock()

	bytes, err := json.Marshal(m.reports)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) reportDetail(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if index < 0 || index >= len(m.reports) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.reports[index])
	serializer.SetMaxDepth(1)

	dieOnErr(serializer.Serialize(w))
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	bytes, err := json.Marshal(resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
