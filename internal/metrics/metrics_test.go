package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findFamily は収集結果から指定名のメトリクスファミリーを探す。
func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue はメトリクスから指定ラベルの値を返す。
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findFamily(t, reg, "notely_http_status_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		label := labelValue(m, "status_code")
		val := m.GetCounter().GetValue()
		switch label {
		case "200":
			if val != 2 {
				t.Errorf("http_status_total{status_code=200} = %v, want 2", val)
			}
		case "404":
			if val != 1 {
				t.Errorf("http_status_total{status_code=404} = %v, want 1", val)
			}
		default:
			t.Errorf("unexpected label value: %s", label)
		}
	}
}

// TestRecordRequestLatency_ObservesHistogram はルート別のヒストグラムに値が記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency("/notes/{id}", 100*time.Millisecond)
	c.RecordRequestLatency("/notes/{id}", 2*time.Second)

	mf := findFamily(t, reg, "notely_http_request_duration_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
	}
	// 合計は0.1 + 2.0 = 2.1秒
	if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
		t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
	}
	if got := labelValue(mf.GetMetric()[0], "route"); got != "/notes/{id}" {
		t.Errorf("route label = %q, want %q", got, "/notes/{id}")
	}
}

// TestRecordAuthAttempt_LabelsByMethodAndOutcome は認証試行カウンタのラベルを検証する。
func TestRecordAuthAttempt_LabelsByMethodAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthAttempt("password", AuthOutcomeSuccess)
	c.RecordAuthAttempt("password", AuthOutcomeFailure)
	c.RecordAuthAttempt("password", AuthOutcomeFailure)

	mf := findFamily(t, reg, "notely_auth_attempts_total")
	for _, m := range mf.GetMetric() {
		if labelValue(m, "method") != "password" {
			t.Errorf("unexpected method label: %s", labelValue(m, "method"))
		}
		switch labelValue(m, "outcome") {
		case AuthOutcomeSuccess:
			if m.GetCounter().GetValue() != 1 {
				t.Errorf("success = %v, want 1", m.GetCounter().GetValue())
			}
		case AuthOutcomeFailure:
			if m.GetCounter().GetValue() != 2 {
				t.Errorf("failure = %v, want 2", m.GetCounter().GetValue())
			}
		}
	}
}

// TestRecordNoteOperation_IncrementsCounter はノート操作カウンタが増加することを検証する。
func TestRecordNoteOperation_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNoteOperation("create")
	c.RecordNoteOperation("create")
	c.RecordNoteOperation("trash")

	mf := findFamily(t, reg, "notely_note_operations_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
}

// TestRecordHighlightsCreated_IgnoresZero は0件の記録でカウンタが変化しないことを検証する。
func TestRecordHighlightsCreated_IgnoresZero(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHighlightsCreated(3)
	c.RecordHighlightsCreated(0)
	c.RecordHighlightsCreated(2)

	mf := findFamily(t, reg, "notely_highlights_created_total")
	val := mf.GetMetric()[0].GetCounter().GetValue()
	if val != 5 {
		t.Errorf("highlights_created_total = %v, want 5", val)
	}
}

// TestNopCollector_SatisfiesInterface はNopCollectorが記録時にパニックしないことを検証する。
func TestNopCollector_SatisfiesInterface(t *testing.T) {
	var c MetricsCollector = NopCollector{}
	c.RecordHTTPStatus(500)
	c.RecordRequestLatency("/", time.Second)
	c.RecordAuthAttempt("google", AuthOutcomeFailure)
	c.RecordNoteOperation("delete")
	c.RecordHighlightsCreated(1)
}
