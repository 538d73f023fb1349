package aquaox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBatchCSV = `aerator_id,temperature,salinity,hp,volume,t10,t70,kwh_price
pentairr Paddlewheel,20,5,2,1000,1.5,21.5,0.5
Sagar,28,5,3,1000,2,12,1.2
"Acme, Inc. Turbo",20,5,2,1000,5,5,0.5
generic Paddlewheel,45,5,2,1000,1.5,21.5,0.5
`

func Test_ReadAerationTests(t *testing.T) {
	tests, err := ReadAerationTests(strings.NewReader(testBatchCSV))
	require.NoError(t, err)
	require.Len(t, tests, 4)

	assert.Equal(t, AerationTest{
		Temperature: 20,
		Salinity:    5,
		Horsepower:  2,
		Volume:      1000,
		T10:         1.5,
		T70:         21.5,
		KWhPrice:    0.5,
		AeratorID:   "pentairr Paddlewheel",
	}, tests[0])
	assert.Equal(t, "Acme, Inc. Turbo", tests[2].AeratorID)
}

func Test_ReadAerationTests_HeaderCase(t *testing.T) {
	input := "Temperature, Salinity, HP, Volume, T10, T70, KWh_Price, Aerator_ID, note\n20, 5, 2, 1000, 1.5, 21.5, 0.5, Sagar, ok\n"

	tests, err := ReadAerationTests(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, 21.5, tests[0].T70)
	assert.Equal(t, "Sagar", tests[0].AeratorID)
}

func Test_ReadAerationTests_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "aeration tests: empty input"},
		{"missing column", "temperature,salinity\n20,5\n", `aeration tests: missing column "hp"`},
		{"bad number", "temperature,salinity,hp,volume,t10,t70,kwh_price,aerator_id\n20,five,2,1000,1.5,21.5,0.5,Sagar\n", "aeration tests: line 2: column salinity"},
		{"not finite", "temperature,salinity,hp,volume,t10,t70,kwh_price,aerator_id\n20,5,2,Inf,1.5,21.5,0.5,Sagar\n", "column volume: \"Inf\" is not a finite number"},
		{"short row", "temperature,salinity,hp,volume,t10,t70,kwh_price,aerator_id\n20,5\n", "aeration tests:"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadAerationTests(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func Test_ReadAerationTests_HeaderOnly(t *testing.T) {
	tests, err := ReadAerationTests(strings.NewReader("temperature,salinity,hp,volume,t10,t70,kwh_price,aerator_id\n"))
	require.NoError(t, err)
	assert.Empty(t, tests)
}

func Test_EvaluateBatch(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests, err := ReadAerationTests(strings.NewReader(testBatchCSV))
	require.NoError(t, err)

	report, err := EvaluateBatch(context.Background(), NewShrimpPond(pondTable(t)), tests, 3,
		WithClock(clockwork.NewFakeClockAt(fixed)))
	require.NoError(t, err)

	assert.Equal(t, fixed, report.GeneratedAt)
	require.Len(t, report.Results, 4)
	assert.Equal(t, 2, report.Failed())

	// Results keep input order regardless of completion order.
	for i, res := range report.Results {
		assert.Equal(t, tests[i], res.Test)
	}
	require.NoError(t, report.Results[0].Err)
	assert.Equal(t, 27.27, report.Results[0].Metrics.SOTR)
	require.NoError(t, report.Results[1].Err)
	assert.Equal(t, 45.11, report.Results[1].Metrics.SOTR)
	assert.True(t, errors.Is(report.Results[2].Err, ErrInvalidTestData))
	assert.True(t, errors.Is(report.Results[3].Err, ErrOutOfRange))
}

// Each call stamps its own report; a clock given to one batch does not leak into the next.
func Test_EvaluateBatch_ClockPerCall(t *testing.T) {
	tests, err := ReadAerationTests(strings.NewReader(testBatchCSV))
	require.NoError(t, err)
	pond := NewShrimpPond(pondTable(t))

	fake := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	first, err := EvaluateBatch(context.Background(), pond, tests, 2, WithClock(fake))
	require.NoError(t, err)
	fake.Advance(90 * time.Minute)
	second, err := EvaluateBatch(context.Background(), pond, tests, 2, WithClock(fake))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, second.GeneratedAt.Sub(first.GeneratedAt))

	before := time.Now()
	live, err := EvaluateBatch(context.Background(), pond, tests, 2, WithClock(nil))
	require.NoError(t, err)
	assert.False(t, live.GeneratedAt.Before(before))
}

func Test_EvaluateBatch_SingleWorker(t *testing.T) {
	tests, err := ReadAerationTests(strings.NewReader(testBatchCSV))
	require.NoError(t, err)

	report, err := EvaluateBatch(context.Background(), NewShrimpPond(pondTable(t)), tests, 0)
	require.NoError(t, err)
	assert.Len(t, report.Results, 4)
	assert.Equal(t, 2, report.Failed())
}

func Test_EvaluateBatch_Canceled(t *testing.T) {
	tests, err := ReadAerationTests(strings.NewReader(testBatchCSV))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = EvaluateBatch(ctx, NewShrimpPond(pondTable(t)), tests, 2)
	assert.True(t, errors.Is(err, context.Canceled))
}
