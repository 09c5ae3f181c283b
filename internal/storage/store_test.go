package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/optimize"
	"github.com/san-kum/finsim/internal/solver"
	"github.com/san-kum/finsim/internal/sweep"
)

func testDataset() *sweep.Dataset {
	return &sweep.Dataset{
		Records: []solver.Record{
			{Mass: 70, Speed: 16, Freq: 1.4, TrimDeg: 4.25, AmpM: 0.1375, PowerW: 310.5, EfficiencyWPerKg: 310.5 / 70},
			{Mass: 85, Speed: 18, Freq: 1.2, TrimDeg: 3.1, AmpM: 0.2, PowerW: 402.25, EfficiencyWPerKg: 402.25 / 85},
		},
		Dropped:   []sweep.Drop{{Cell: sweep.Cell{Mass: 100, Speed: 14, Freq: 1.2}, Reason: "not converged: stalled"}},
		Attempted: 3,
	}
}

func testMeta() RunMetadata {
	return RunMetadata{
		Label: "test",
		Steps: hydro.DefaultSteps,
		Base:  hydro.DefaultParams(0, 0, solver.WingAreaCm2, 0),
		Grid:  sweep.Grid{Masses: []float64{70, 85, 100}, Speeds: []float64{16}, Freqs: []float64{1.4}},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ds := testDataset()
	runID, err := st.Save(testMeta(), ds)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "test_") {
		t.Errorf("expected run id with label prefix, got %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != runID {
		t.Errorf("expected id %s, got %s", runID, meta.ID)
	}
	if meta.Attempted != 3 || meta.Solved != 2 || len(meta.Dropped) != 1 {
		t.Errorf("unexpected counts: %+v", meta)
	}
	if meta.Base.WingAreaCm2 != solver.WingAreaCm2 {
		t.Errorf("expected base wing area saved, got %v", meta.Base.WingAreaCm2)
	}

	records, err := st.LoadRecords(runID)
	if err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for i := range records {
		if records[i] != ds.Records[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, ds.Records[i], records[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
	if _, err := st.Latest(); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound on empty store, got %v", err)
	}

	first, err := st.Save(testMeta(), testDataset())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(testMeta(), &sweep.Dataset{Attempted: 1})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first {
		t.Errorf("expected oldest run first, got %s", runs[0].ID)
	}
	latest, err := st.Latest()
	if err != nil || latest != second {
		t.Errorf("expected latest %s, got %s (%v)", second, latest, err)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testMeta(), &sweep.Dataset{})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "equilibria.csv")); os.IsNotExist(err) {
		t.Error("equilibria.csv not created")
	}

	records, err := st.LoadRecords(runID)
	if err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestStoreRunNotFound(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadRecords("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, testDataset().Records); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(Header, ",") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "70,16,1.4,4.25,0.1375,310.5,") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestExportOptimaCSV(t *testing.T) {
	g := NewWithT(t)
	results := []optimize.Result{
		{Mass: 70, AreaCm2: 1300, Speed: 12.5, Freq: 1.25, AmpM: 0.14, TrimDeg: 4.5, Asymmetry: -0.1, PhaseDeg: 85,
			PowerW: 120.5, NormPowerW: 300, Lift: 687, Thrust: 0.25, RiderLoad: 350, Valid: true},
		{Mass: 90, AreaCm2: 2000, Speed: 20, Freq: 2, AmpM: 0.05, PowerW: 900},
	}

	var buf bytes.Buffer
	g.Expect(ExportOptimaCSV(&buf, results)).To(Succeed())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	g.Expect(lines).To(HaveLen(3))
	g.Expect(lines[0]).To(Equal(strings.Join(OptimaHeader, ",")))
	g.Expect(lines[1]).To(Equal("70,1300,12.5,1.25,0.14,4.5,-0.1,85,120.5,300,687,0.25,350,true"))
	g.Expect(lines[2]).To(HaveSuffix(",false"))
	g.Expect(strings.Split(lines[2], ",")).To(HaveLen(len(OptimaHeader)))
}

func TestReadCSVRejectsGarbage(t *testing.T) {
	in := strings.Join(Header, ",") + "\n70,16,1.4,x,0.1,1,1\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Error("expected parse error")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := testMeta()
	if err := ExportJSON(&buf, &meta, testDataset().Records); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var out ExportData
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Count != 2 || len(out.Records) != 2 {
		t.Errorf("expected 2 records, got %d/%d", out.Count, len(out.Records))
	}
	if out.Run == nil || out.Run.Label != "test" {
		t.Errorf("expected run metadata, got %+v", out.Run)
	}

	buf.Reset()
	if err := ExportJSON(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"records": []`) {
		t.Errorf("expected empty records array, got %s", buf.String())
	}
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := ExportFile(path, func(w io.Writer) error {
		return ExportCSV(w, testDataset().Records)
	})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	records, err := ReadCSV(bytes.NewReader(data))
	if err != nil || len(records) != 2 {
		t.Errorf("expected 2 records back, got %d (%v)", len(records), err)
	}
}

func TestStoreLatest(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())
	g.Expect(st.Init()).To(Succeed())

	_, err := st.Latest()
	g.Expect(err).To(MatchError(ErrRunNotFound))

	first, err := st.Save(testMeta(), testDataset())
	g.Expect(err).NotTo(HaveOccurred())
	meta := testMeta()
	meta.Label = "later"
	second, err := st.Save(meta, testDataset())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(second).NotTo(Equal(first))

	latest, err := st.Latest()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(latest).To(Equal(second))

	records, err := st.LoadRecords(latest)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(records).To(HaveLen(2))
	g.Expect(records[0].PowerW).To(BeNumerically("~", 310.5, 1e-12))
}
