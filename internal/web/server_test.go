package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/lightboard/internal/input"
	"github.com/sweeney/lightboard/internal/logic"
	"github.com/sweeney/lightboard/internal/status"
)

func newTestServer(t *testing.T, queue int) (*httptest.Server, *status.Tracker, chan Command) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      10,
		DebounceMs:  30,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		Lights:      3,
	}
	tr := status.NewTracker(start, cfg)
	cmds := make(chan Command, queue)
	srv := New(":0", tr, cmds, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr, cmds
}

func updateFromEnsemble(t *testing.T, tr *status.Tracker, mode logic.Mode, now logic.Tick) {
	t.Helper()
	e, err := logic.NewEnsemble([]int{17, 27, 22}, logic.DefaultTiming())
	if err != nil {
		t.Fatalf("NewEnsemble: %v", err)
	}
	if err := e.SetMode(mode, 0); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if _, err := e.Process(now, logic.Activations{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	tr.Update(e.Snapshot(), now, true, input.Counts{Selector: 4, Buttons: []int{1, 0, 2}})
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t, 1)
	updateFromEnsemble(t, tr, logic.ModeChase, 0)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Mode != "CHASE" {
		t.Errorf("Mode: got %q, want CHASE", sj.Status.Mode)
	}
	if sj.Status.Display != "[CHASE] [*oo]" {
		t.Errorf("Display: got %q", sj.Status.Display)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Selector != 4 {
		t.Errorf("Counts.Selector: got %d, want 4", sj.Status.Counts.Selector)
	}
	if len(sj.Status.Lights) != 3 || sj.Status.Lights[2].Output != 22 {
		t.Errorf("Lights: got %+v", sj.Status.Lights)
	}
	if sj.Status.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", sj.Status.Config.PollMs)
	}
}

func TestJSONUnknownModeBeforeFirstTick(t *testing.T) {
	ts, _, _ := newTestServer(t, 1)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if sj.Status.Mode != "UNKNOWN" {
		t.Errorf("Mode before first tick: got %q, want UNKNOWN", sj.Status.Mode)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr, _ := newTestServer(t, 1)
	updateFromEnsemble(t, tr, logic.ModeCylonEye, 0)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"CYLON_EYE", "/api/lights/3/press", "Button 3", "/api/mode/CHASE_SLOW"} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("page does not contain %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _, _ := newTestServer(t, 1)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t, 1)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("go_goroutines")) {
		t.Error("expected default Go collector output")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t, 1)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestControlRequiresPost(t *testing.T) {
	ts, _, _ := newTestServer(t, 1)

	resp, err := http.Get(ts.URL + "/api/selector")
	if err != nil {
		t.Fatalf("GET /api/selector: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestSelectorCommand(t *testing.T) {
	ts, _, cmds := newTestServer(t, 1)

	resp := post(t, ts.URL+"/api/selector")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", resp.StatusCode)
	}

	select {
	case cmd := <-cmds:
		if !cmd.Selector || cmd.Light != 0 || cmd.Mode != nil {
			t.Errorf("unexpected command %+v", cmd)
		}
	default:
		t.Fatal("no command queued")
	}
}

func TestPressCommand(t *testing.T) {
	ts, tr, cmds := newTestServer(t, 1)
	updateFromEnsemble(t, tr, logic.ModeOff, 0)

	resp := post(t, ts.URL+"/api/lights/2/press")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", resp.StatusCode)
	}
	if cmd := <-cmds; cmd.Light != 2 {
		t.Errorf("Light: got %d, want 2", cmd.Light)
	}

	for _, path := range []string{"/api/lights/0/press", "/api/lights/4/press"} {
		if resp := post(t, ts.URL+path); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: got %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestModeCommand(t *testing.T) {
	ts, _, cmds := newTestServer(t, 1)

	resp := post(t, ts.URL+"/api/mode/sync-blink-long")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", resp.StatusCode)
	}
	cmd := <-cmds
	if cmd.Mode == nil || *cmd.Mode != logic.ModeSyncBlinkLong {
		t.Errorf("unexpected command %+v", cmd)
	}

	resp = post(t, ts.URL+"/api/mode/disco")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown mode: got %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if !strings.Contains(body["error"], "disco") {
		t.Errorf("error body: got %v", body)
	}
}

func TestFormPostRedirects(t *testing.T) {
	_, tr, cmds := newTestServer(t, 1)
	srv := New(":0", tr, cmds, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/selector", strings.NewReader(""))
	req.Header.Set("Content-Type", formContentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
	if cmd := <-cmds; !cmd.Selector {
		t.Errorf("unexpected command %+v", cmd)
	}
}

func TestCommandQueueFull(t *testing.T) {
	ts, _, _ := newTestServer(t, 1)

	post(t, ts.URL+"/api/selector")
	resp := post(t, ts.URL+"/api/selector")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", resp.StatusCode)
	}
}

func TestControlDisabled(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	srv := New(":0", tr, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/api/selector")
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", resp.StatusCode)
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	tr := status.NewTracker(time.Now(), status.Config{})
	srv := New(":0", tr, nil, &buf)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.json", nil))

	if rec.Code != 200 {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(buf.String(), "GET /index.json") {
		t.Errorf("access log: got %q", buf.String())
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr, _ := newTestServer(t, 1)

	updateFromEnsemble(t, tr, logic.ModeSyncBlinkShort, 0)
	resp1, _ := http.Get(ts.URL + "/index.json")
	var sj1 status.StatusJSON
	json.NewDecoder(resp1.Body).Decode(&sj1)
	resp1.Body.Close()
	if sj1.Status.Display != "[SYNC_BLINK_SHORT] [***]" {
		t.Errorf("Display: got %q", sj1.Status.Display)
	}

	// Half a second later every light is in its off phase
	updateFromEnsemble(t, tr, logic.ModeSyncBlinkShort, 600)
	resp2, _ := http.Get(ts.URL + "/index.json")
	var sj2 status.StatusJSON
	json.NewDecoder(resp2.Body).Decode(&sj2)
	resp2.Body.Close()

	if sj2.Status.Display != "[SYNC_BLINK_SHORT] [ooo]" {
		t.Errorf("Display: got %q", sj2.Status.Display)
	}
	if sj2.Status.Tick != 600 {
		t.Errorf("Tick: got %d, want 600", sj2.Status.Tick)
	}
}
