package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func testConfig() ViewConfig {
	return ViewConfig{
		Fields: map[string]Accessor{
			"name":   FieldAccessor("name"),
			"status": FieldAccessor("status"),
		},
		Searchable: []string{"name"},
		Date:       func(r Record) time.Time { return r.Date },
	}
}

func rec(id, name, status string, date time.Time) Record {
	return Record{ID: id, Fields: map[string]string{"name": name, "status": status}, Date: date}
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestEvaluateConjunctivePredicates(t *testing.T) {
	records := []Record{
		rec("1", "Alpha", "active", testNow),
		rec("2", "Beta", "inactive", testNow),
	}
	state := ViewState{Search: "a", Criteria: map[string]string{"status": "active"}, DateMode: DateAll}

	got := EvaluateRecords(testConfig(), state, records, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestEvaluateStatusEqualityIsExact(t *testing.T) {
	// "inactive" contains "active" as a substring; the discrete predicate
	// must still reject it.
	records := []Record{
		rec("1", "Alpha", "active", testNow),
		rec("2", "Beta", "inactive", testNow),
	}
	state := ViewState{Criteria: map[string]string{"status": "active"}}

	got := EvaluateRecords(testConfig(), state, records, testNow)

	assert.Equal(t, []string{"1"}, ids(got))
}

func TestEvaluateSearchCaseInsensitiveAcrossFields(t *testing.T) {
	cfg := testConfig()
	cfg.Searchable = []string{"name", "status"}
	records := []Record{
		rec("1", "Computer Society", "active", testNow),
		rec("2", "Glee Club", "PENDING", testNow),
		rec("3", "Chess Guild", "active", testNow),
	}

	got := EvaluateRecords(cfg, ViewState{Search: "pend"}, records, testNow)
	assert.Equal(t, []string{"2"}, ids(got))

	got = EvaluateRecords(cfg, ViewState{Search: "C"}, records, testNow)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestEvaluateEmptyAndAllDisablePredicates(t *testing.T) {
	records := []Record{
		rec("1", "Alpha", "active", testNow),
		rec("2", "Beta", "inactive", testNow),
	}
	state := ViewState{Search: "", Criteria: map[string]string{"status": "all"}}

	got := EvaluateRecords(testConfig(), state, records, testNow)

	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestBucketFilters(t *testing.T) {
	inWeek := rec("w", "In Week", "active", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	lastYear := rec("ly", "Last Year", "active", time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC))
	older := rec("o", "Old", "active", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))
	records := []Record{inWeek, lastYear, older}

	cases := []struct {
		mode DateMode
		want []string
	}{
		{DateWeek, []string{"w"}},
		{DateMonth, []string{"w"}},
		{DateYear, []string{"w"}},
		{DateLastYear, []string{"ly"}},
		{DateMode("2021"), []string{"o"}},
		{DateAll, []string{"w", "ly", "o"}},
	}
	for _, tc := range cases {
		got := EvaluateRecords(testConfig(), ViewState{DateMode: tc.mode}, records, testNow)
		assert.Equal(t, tc.want, ids(got), "mode %s", tc.mode)
	}
}

func TestMonthBucketUsesCalendarMonthNotThirtyDays(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	// Feb 2024 has 29 days, so the anchor clamps to Feb 29.
	anchor := previousMonthAnchor(now)
	assert.Equal(t, time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), anchor)

	// Jan 31 minus a month clamps to Dec 31 (direct), Mar 31 clamps to Feb.
	anchor = previousMonthAnchor(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2023, anchor.Year())
	assert.Equal(t, time.December, anchor.Month())
	assert.Equal(t, 31, anchor.Day())
}

func TestNewestOldestSortWithinFilteredSubset(t *testing.T) {
	records := []Record{
		rec("a", "A", "active", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		rec("b", "B", "active", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)),
		rec("c", "C", "active", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		rec("d", "D", "inactive", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
	}

	got := EvaluateRecords(testConfig(), ViewState{DateMode: SortNewest}, records, testNow)
	assert.Equal(t, []string{"d", "c", "a", "b"}, ids(got))

	got = EvaluateRecords(testConfig(), ViewState{DateMode: SortOldest}, records, testNow)
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(got))

	// Sorting never changes membership: the non-date filters still apply.
	state := ViewState{Criteria: map[string]string{"status": "active"}, DateMode: SortNewest}
	got = EvaluateRecords(testConfig(), state, records, testNow)
	assert.Equal(t, []string{"c", "a", "b"}, ids(got))
}

func TestSortTiesKeepOriginalOrder(t *testing.T) {
	same := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		rec("first", "First", "active", same),
		rec("second", "Second", "active", same),
		rec("third", "Third", "active", same),
	}

	got := EvaluateRecords(testConfig(), ViewState{DateMode: SortNewest}, records, testNow)
	assert.Equal(t, []string{"first", "second", "third"}, ids(got))

	got = EvaluateRecords(testConfig(), ViewState{DateMode: SortOldest}, records, testNow)
	assert.Equal(t, []string{"first", "second", "third"}, ids(got))
}

func TestUnparseableDateSortsOldestAndFailsBuckets(t *testing.T) {
	bad := rec("bad", "Bad Date", "active", ParseRecordDate("not a date"))
	good := rec("good", "Good", "active", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	records := []Record{bad, good}

	got := EvaluateRecords(testConfig(), ViewState{DateMode: SortNewest}, records, testNow)
	assert.Equal(t, []string{"good", "bad"}, ids(got))

	for _, mode := range []DateMode{DateWeek, DateMonth, DateYear, DateLastYear, DateMode("2024")} {
		got = EvaluateRecords(testConfig(), ViewState{DateMode: mode}, records, testNow)
		assert.NotContains(t, ids(got), "bad", "mode %s", mode)
	}

	got = EvaluateRecords(testConfig(), ViewState{DateMode: DateAll}, records, testNow)
	assert.Equal(t, []string{"bad", "good"}, ids(got))
}

func TestEvaluateIsIdempotent(t *testing.T) {
	engine := NewEngine(WithClock(func() time.Time { return testNow }), WithSearchDelay(0))
	require.NoError(t, engine.RegisterView("orgs", testConfig()))
	require.NoError(t, engine.SetRecords("orgs", []Record{
		rec("1", "Alpha", "active", testNow),
		rec("2", "Beta", "inactive", testNow.AddDate(0, -2, 0)),
		rec("3", "Gamma", "active", testNow.AddDate(-1, 0, 0)),
	}))
	require.NoError(t, engine.SetCriterion("orgs", "status", "active"))
	require.NoError(t, engine.SetDateMode("orgs", SortNewest))

	first, err := engine.Evaluate("orgs")
	require.NoError(t, err)
	second, err := engine.Evaluate("orgs")
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, []string{"1", "3"}, ids(first))
}

func TestParseDateMode(t *testing.T) {
	assert.Equal(t, DateAll, ParseDateMode(""))
	assert.Equal(t, DateAll, ParseDateMode("all"))
	assert.Equal(t, DateAll, ParseDateMode("bogus"))
	assert.Equal(t, DateWeek, ParseDateMode(" Week "))
	assert.Equal(t, DateLastYear, ParseDateMode("last_year"))
	assert.Equal(t, SortNewest, ParseDateMode("newest"))
	assert.Equal(t, DateMode("2022"), ParseDateMode("2022"))
	assert.Equal(t, DateAll, ParseDateMode("22"))
	assert.True(t, DateMode("2022").IsBucket())
	assert.False(t, SortOldest.IsBucket())
	assert.True(t, SortOldest.IsSort())
}

func TestRegisterViewValidation(t *testing.T) {
	engine := NewEngine()
	err := engine.RegisterView("bad", ViewConfig{
		Fields:     map[string]Accessor{"name": FieldAccessor("name")},
		Searchable: []string{"missing"},
	})
	require.Error(t, err)

	require.NoError(t, engine.RegisterView("ok", testConfig()))
	assert.Error(t, engine.RegisterView("ok", testConfig()))
}

type fakeTarget struct {
	hidden map[string]bool
	order  []string
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{hidden: make(map[string]bool)}
}

func (f *fakeTarget) Show(id string) { f.hidden[id] = false }
func (f *fakeTarget) Hide(id string) { f.hidden[id] = true }
func (f *fakeTarget) MoveToEnd(id string) {
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	f.order = append(f.order, id)
}

func (f *fakeTarget) visibleOrder() []string {
	out := make([]string, 0, len(f.order))
	for _, id := range f.order {
		if !f.hidden[id] {
			out = append(out, id)
		}
	}
	return out
}

func TestRenderHidesAndReorders(t *testing.T) {
	engine := NewEngine(WithClock(func() time.Time { return testNow }), WithSearchDelay(0))
	require.NoError(t, engine.RegisterView("orgs", testConfig()))

	target := newFakeTarget()
	require.NoError(t, engine.AttachTarget("orgs", target))
	require.NoError(t, engine.SetRecords("orgs", []Record{
		rec("1", "Alpha", "active", testNow.AddDate(0, 0, -3)),
		rec("2", "Beta", "inactive", testNow.AddDate(0, 0, -2)),
		rec("3", "Gamma", "active", testNow.AddDate(0, 0, -1)),
	}))

	require.NoError(t, engine.SetCriterion("orgs", "status", "active"))
	assert.True(t, target.hidden["2"])
	assert.False(t, target.hidden["1"])

	require.NoError(t, engine.SetDateMode("orgs", SortNewest))
	assert.Equal(t, []string{"3", "1"}, target.visibleOrder())
}

func TestSearchDebounceFiresOnlyLast(t *testing.T) {
	engine := NewEngine(
		WithClock(func() time.Time { return testNow }),
		WithSearchDelay(20*time.Millisecond),
	)
	require.NoError(t, engine.RegisterView("orgs", testConfig()))
	require.NoError(t, engine.SetRecords("orgs", []Record{
		rec("1", "Alpha", "active", testNow),
		rec("2", "Beta", "active", testNow),
	}))

	require.NoError(t, engine.Search("orgs", "al"))
	require.NoError(t, engine.Search("orgs", "bet"))

	assert.Eventually(t, func() bool {
		state, err := engine.State("orgs")
		return err == nil && state.Search == "bet"
	}, time.Second, 5*time.Millisecond)

	got, err := engine.Evaluate("orgs")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestInvalidateCancelsPendingSearch(t *testing.T) {
	engine := NewEngine(WithSearchDelay(20 * time.Millisecond))
	require.NoError(t, engine.RegisterView("orgs", testConfig()))

	require.NoError(t, engine.Search("orgs", "alpha"))
	engine.Invalidate("orgs")

	time.Sleep(50 * time.Millisecond)
	state, err := engine.State("orgs")
	require.NoError(t, err)
	assert.Equal(t, "", state.Search)
}

func TestParseRecordDate(t *testing.T) {
	assert.True(t, ParseRecordDate("").IsZero())
	assert.True(t, ParseRecordDate("yesterday").IsZero())
	assert.Equal(t, 2024, ParseRecordDate("2024-03-10").Year())
	assert.Equal(t, time.March, ParseRecordDate("Mar. 10, 2024").Month())
	assert.Equal(t, 10, ParseRecordDate("03/10/2024").Day())
}
