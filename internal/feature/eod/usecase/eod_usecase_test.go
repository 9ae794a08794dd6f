package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_sync/internal/feature/securities/domain/entity"
	"stock_sync/internal/platform/externalapi/fmp/dto"
)

var ErrDB = errors.New("database error")

func ptr[T any](v T) *T { return &v }

func day(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }

// fixedCalendar returns the UTC date of t.
type fixedCalendar struct{}

func (fixedCalendar) TradingDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mockQuoteProvider returns the quotes set for the current test step.
type mockQuoteProvider struct {
	quotes []dto.Quote
}

func (m *mockQuoteProvider) Quotes(context.Context, []string) []dto.Quote { return m.quotes }

// memInstrumentRepository is an in-memory InstrumentRepository.
type memInstrumentRepository struct {
	rows             map[uint]*entity.Instrument
	ApplyDerivedFunc func(id uint) error
}

func newMemInstruments(insts ...entity.Instrument) *memInstrumentRepository {
	m := &memInstrumentRepository{rows: map[uint]*entity.Instrument{}}
	for i := range insts {
		inst := insts[i]
		m.rows[inst.ID] = &inst
	}
	return m
}

func (m *memInstrumentRepository) ListActive(context.Context) ([]entity.Instrument, error) {
	ids := make([]uint, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]entity.Instrument, 0, len(ids))
	for _, id := range ids {
		if m.rows[id].IsActivelyTrading {
			out = append(out, *m.rows[id])
		}
	}
	return out, nil
}

func (m *memInstrumentRepository) Get(_ context.Context, id uint) (*entity.Instrument, error) {
	inst, ok := m.rows[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *inst
	return &cp, nil
}

func (m *memInstrumentRepository) ApplyDerived(_ context.Context, id uint, d entity.DerivedUpdate) error {
	if m.ApplyDerivedFunc != nil {
		if err := m.ApplyDerivedFunc(id); err != nil {
			return err
		}
	}
	inst := m.rows[id]
	inst.Change7DPct = d.Change7DPct
	inst.YearHigh = d.YearHigh
	inst.YearLow = d.YearLow
	if d.AllTimeHigh != nil {
		inst.AllTimeHigh, inst.AllTimeHighDate = d.AllTimeHigh, d.AllTimeHighDate
	}
	if d.AllTimeLow != nil {
		inst.AllTimeLow, inst.AllTimeLowDate = d.AllTimeLow, d.AllTimeLowDate
	}
	inst.LastEODSync = &d.SyncedAt
	return nil
}

type barKey struct {
	id   uint
	date time.Time
}

// memBarRepository is an in-memory DailyBarRepository keyed like the real table.
type memBarRepository struct {
	bars       map[barKey]entity.DailyBar
	UpsertFunc func(bar *entity.DailyBar) error
}

func newMemBars() *memBarRepository {
	return &memBarRepository{bars: map[barKey]entity.DailyBar{}}
}

func (m *memBarRepository) Upsert(_ context.Context, bar *entity.DailyBar) error {
	if m.UpsertFunc != nil {
		if err := m.UpsertFunc(bar); err != nil {
			return err
		}
	}
	m.bars[barKey{bar.InstrumentID, bar.Date}] = *bar
	return nil
}

func (m *memBarRepository) newestFirst(id uint, keep func(time.Time) bool, limit int) []entity.DailyBar {
	var out []entity.DailyBar
	for k, b := range m.bars {
		if k.id == id && keep(k.date) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memBarRepository) RecentBefore(_ context.Context, id uint, date time.Time, limit int) ([]entity.DailyBar, error) {
	return m.newestFirst(id, func(d time.Time) bool { return d.Before(date) }, limit), nil
}

func (m *memBarRepository) Recent(_ context.Context, id uint, date time.Time, limit int) ([]entity.DailyBar, error) {
	return m.newestFirst(id, func(d time.Time) bool { return !d.After(date) }, limit), nil
}

func closes(vals ...float64) []entity.DailyBar {
	out := make([]entity.DailyBar, len(vals))
	for i, v := range vals {
		out[i] = entity.DailyBar{Close: ptr(v)}
	}
	return out
}

func TestChange7D(t *testing.T) {
	testCases := []struct {
		name  string
		price *float64
		prior []entity.DailyBar
		want  *float64
	}{
		{
			name:  "ten prior bars uses the 7th",
			price: ptr(110.0),
			prior: closes(109, 108, 107, 106, 105, 104, 100, 90, 80, 70),
			want:  ptr(10.0),
		},
		{
			name:  "exactly seven prior bars uses the oldest",
			price: ptr(50.0),
			prior: closes(49, 48, 47, 46, 45, 44, 40),
			want:  ptr(25.0),
		},
		{
			name:  "three prior bars uses the oldest of the three",
			price: ptr(12.0),
			prior: closes(11, 10.5, 8),
			want:  ptr(50.0),
		},
		{
			name:  "no prior bars is null",
			price: ptr(12.0),
			prior: nil,
			want:  nil,
		},
		{
			name:  "zero baseline is null",
			price: ptr(12.0),
			prior: closes(11, 0),
			want:  nil,
		},
		{
			name:  "null baseline is null",
			price: ptr(12.0),
			prior: []entity.DailyBar{{Close: ptr(11.0)}, {Close: nil}},
			want:  nil,
		},
		{
			name:  "null price is null",
			price: nil,
			prior: closes(11, 10),
			want:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Change7D(tc.price, tc.prior)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tc.want, *got, 1e-9)
		})
	}
}

func TestYearRange(t *testing.T) {
	t.Run("nulls and zeros are ignored", func(t *testing.T) {
		window := make([]entity.DailyBar, 252)
		for i := range window {
			if i%3 == 0 {
				continue // high/low missing
			}
			window[i].High = ptr(10.0 + float64(i%50))
			window[i].Low = ptr(5.0 + float64(i%40))
		}
		window[1].High = ptr(0.0)
		window[2].Low = ptr(0.0)

		high, low := YearRange(window)

		require.NotNil(t, high)
		require.NotNil(t, low)
		assert.Equal(t, 59.0, *high)
		assert.Equal(t, 5.0, *low)
	})

	t.Run("all null window stays null", func(t *testing.T) {
		high, low := YearRange(make([]entity.DailyBar, 252))
		assert.Nil(t, high)
		assert.Nil(t, low)
	})

	t.Run("empty window stays null", func(t *testing.T) {
		high, low := YearRange(nil)
		assert.Nil(t, high)
		assert.Nil(t, low)
	})
}

func TestWatermarks(t *testing.T) {
	v, ok := RaiseHigh(nil, ptr(5.0))
	assert.True(t, ok)
	assert.Equal(t, 5.0, *v)

	_, ok = RaiseHigh(ptr(5.0), ptr(5.0))
	assert.False(t, ok, "equal is not an improvement")

	_, ok = RaiseHigh(ptr(5.0), ptr(0.0))
	assert.False(t, ok, "zero price never moves the watermark")

	v, ok = RaiseHigh(ptr(0.0), ptr(3.0))
	assert.True(t, ok, "stored zero counts as unset")
	assert.Equal(t, 3.0, *v)

	v, ok = LowerLow(ptr(5.0), ptr(4.0))
	assert.True(t, ok)
	assert.Equal(t, 4.0, *v)

	_, ok = LowerLow(ptr(5.0), ptr(6.0))
	assert.False(t, ok)
}

func TestEODUsecase_AllTimeHighSequence(t *testing.T) {
	ctx := context.Background()
	instruments := newMemInstruments(entity.Instrument{ID: 1, ExternalSymbol: "1155.KL", IsActivelyTrading: true})
	bars := newMemBars()
	provider := &mockQuoteProvider{}
	uc := NewEODUsecase(provider, instruments, bars, fixedCalendar{})

	for i, c := range []float64{5, 8, 6, 9, 7} {
		d := day(5 + i)
		uc.now = func() time.Time { return d.Add(10 * time.Hour) }
		provider.quotes = []dto.Quote{{Symbol: "1155.KL", Price: ptr(c), DayHigh: ptr(c + 0.5), DayLow: ptr(c - 0.5)}}

		n, err := uc.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	}

	inst := instruments.rows[1]
	require.NotNil(t, inst.AllTimeHigh)
	assert.Equal(t, 9.0, *inst.AllTimeHigh)
	assert.Equal(t, day(8), *inst.AllTimeHighDate, "stamped with the day 9 occurred")
	require.NotNil(t, inst.AllTimeLow)
	assert.Equal(t, 5.0, *inst.AllTimeLow)
	assert.Equal(t, day(5), *inst.AllTimeLowDate)

	assert.Equal(t, 9.5, *inst.YearHigh)
	assert.Equal(t, 4.5, *inst.YearLow)
	// 7 is compared with the oldest of the 4 prior bars (5)
	assert.InDelta(t, 40.0, *inst.Change7DPct, 1e-9)
}

func TestEODUsecase_Idempotent(t *testing.T) {
	ctx := context.Background()
	instruments := newMemInstruments(
		entity.Instrument{ID: 1, ExternalSymbol: "1155.KL", IsActivelyTrading: true},
		entity.Instrument{ID: 2, ExternalSymbol: "1295.KL", IsActivelyTrading: true},
	)
	bars := newMemBars()
	bars.bars[barKey{1, day(2)}] = entity.DailyBar{InstrumentID: 1, Date: day(2), Close: ptr(8.0), High: ptr(8.2), Low: ptr(7.9)}
	provider := &mockQuoteProvider{quotes: []dto.Quote{
		{Symbol: "1155.KL", Price: ptr(9.6), Open: ptr(9.5), DayHigh: ptr(9.7), DayLow: ptr(9.4), Volume: ptr(1e6), Change: ptr(0.1), ChangesPercentage: ptr(1.05)},
		{Symbol: "1295.KL", Price: ptr(4.4)},
	}}
	uc := NewEODUsecase(provider, instruments, bars, fixedCalendar{})
	uc.now = func() time.Time { return day(5).Add(10 * time.Hour) }

	_, err := uc.Run(ctx)
	require.NoError(t, err)
	firstBars := len(bars.bars)
	first := *instruments.rows[1]

	_, err = uc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, firstBars)
	assert.Len(t, bars.bars, firstBars, "one bar per instrument and date")
	second := *instruments.rows[1]
	assert.Equal(t, first.AllTimeHigh, second.AllTimeHigh)
	assert.Equal(t, first.AllTimeHighDate, second.AllTimeHighDate)
	assert.Equal(t, first.YearHigh, second.YearHigh)
	assert.Equal(t, first.Change7DPct, second.Change7DPct)

	bar := bars.bars[barKey{1, day(5)}]
	assert.Equal(t, 9.6, *bar.Close)
	assert.Equal(t, 9.5, *bar.Open)
	assert.Equal(t, int64(1000000), *bar.Volume)
	assert.Equal(t, 1.05, *bar.ChangePercent)
	assert.InDelta(t, 20.0, *second.Change7DPct, 1e-9)
}

func TestEODUsecase_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	instruments := newMemInstruments(
		entity.Instrument{ID: 1, ExternalSymbol: "1155.KL", IsActivelyTrading: true},
		entity.Instrument{ID: 2, ExternalSymbol: "1295.KL", IsActivelyTrading: true},
		entity.Instrument{ID: 3, ExternalSymbol: "5347.KL", IsActivelyTrading: true},
		entity.Instrument{ID: 4, ExternalSymbol: "7113.KL", IsActivelyTrading: true},
	)
	bars := newMemBars()
	bars.UpsertFunc = func(bar *entity.DailyBar) error {
		if bar.InstrumentID == 2 {
			return ErrDB
		}
		return nil
	}
	instruments.ApplyDerivedFunc = func(id uint) error {
		if id == 3 {
			return ErrDB
		}
		return nil
	}
	provider := &mockQuoteProvider{quotes: []dto.Quote{
		{Symbol: "1155.KL", Price: ptr(1.0)},
		{Symbol: "1295.KL", Price: ptr(2.0)},
		{Symbol: "5347.KL", Price: ptr(3.0)},
		{Symbol: "7113.KL", Price: ptr(4.0)},
	}}
	uc := NewEODUsecase(provider, instruments, bars, fixedCalendar{})
	uc.now = func() time.Time { return day(5) }

	n, err := uc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Nil(t, instruments.rows[2].AllTimeHigh, "no derived work without a bar")
	_, kept := bars.bars[barKey{3, day(5)}]
	assert.True(t, kept, "bar stays when the derived update fails")
}

func TestEODUsecase_NoActiveInstruments(t *testing.T) {
	n, err := NewEODUsecase(&mockQuoteProvider{}, newMemInstruments(), newMemBars(), fixedCalendar{}).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
}
