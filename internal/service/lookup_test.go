package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/autodata/internal/api/chromedata"
	"github.com/langchou/autodata/internal/jsonvalue"
	"github.com/langchou/autodata/internal/models"
	"github.com/langchou/autodata/internal/report"
	"github.com/langchou/autodata/internal/state"
	"github.com/langchou/autodata/internal/validation"
)

const testVIN = "1FTFW1ET1EFA00001"

type fakeFetcher struct {
	record *chromedata.VehicleRecord
	err    error
	calls  []string
}

func (f *fakeFetcher) GetVehicleInfo(_ context.Context, vin string) (*chromedata.VehicleRecord, error) {
	f.calls = append(f.calls, vin)
	return f.record, f.err
}

type fakeRenderer struct {
	err error
	vin string
	doc jsonvalue.Value
}

func (f *fakeRenderer) Render(vin string, doc jsonvalue.Value) ([]byte, error) {
	f.vin = vin
	f.doc = doc
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	lookups []*models.Lookup
	err     error
}

func (f *fakeRecorder) Create(_ context.Context, l *models.Lookup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, l)
	return f.err
}

type fakePublisher struct {
	states []state.Transition
}

func (f *fakePublisher) PublishLookupState(s interface{}) {
	f.states = append(f.states, s.(state.Transition))
}

func record(t *testing.T, raw string) *chromedata.VehicleRecord {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(raw))
	require.NoError(t, err)
	return &chromedata.VehicleRecord{Raw: v}
}

func fordRecord(t *testing.T) *chromedata.VehicleRecord {
	return record(t, `{
		"validVin": true,
		"year": "2014",
		"make": "Ford",
		"model": "F-150",
		"vehicles": [{"trim": "XL", "styleId": "123"}],
		"exteriorColors": [{"genericDesc": "Red", "rgbHexValue": "#FF0000"}]
	}`)
}

func TestLookupService_GetVehicleDetails(t *testing.T) {
	fetcher := &fakeFetcher{record: fordRecord(t)}
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}
	svc := NewLookupService(zap.NewNop(), fetcher, &fakeRenderer{}, WithRecorder(recorder), WithPublisher(publisher))

	details, err := svc.GetVehicleDetails(context.Background(), "1ftfw1et1efa00001 ")
	require.NoError(t, err)

	assert.Equal(t, []string{testVIN}, fetcher.calls)
	assert.Equal(t, testVIN, details.VIN)
	require.NotNil(t, details.Year)
	assert.Equal(t, 2014, *details.Year)
	assert.Equal(t, "Ford", *details.Make)
	assert.Equal(t, "F-150", *details.Model)
	assert.Equal(t, "XL", *details.Trim)
	assert.Equal(t, "Red", *details.Color)
	assert.Equal(t, "#FF0000", details.ColorHex)
	assert.Equal(t, "123", details.StyleID)

	require.Len(t, recorder.lookups, 1)
	entry := recorder.lookups[0]
	assert.Equal(t, models.LookupKindDetails, entry.Kind)
	assert.Equal(t, models.LookupStatusOK, entry.Status)
	assert.Nil(t, entry.Error)
	assert.Equal(t, "Ford", *entry.Make)
	assert.NotEmpty(t, entry.LookupID)

	require.Len(t, publisher.states, 3)
	assert.Equal(t, state.StateCompleted, publisher.states[2].To)
	assert.Equal(t, entry.LookupID, publisher.states[2].LookupID)
}

func TestLookupService_MalformedVIN(t *testing.T) {
	fetcher := &fakeFetcher{record: fordRecord(t)}
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}
	svc := NewLookupService(zap.NewNop(), fetcher, &fakeRenderer{}, WithRecorder(recorder), WithPublisher(publisher))

	for _, vin := range []string{"", "SHORT", "1FTFW1ET1EFA0000I", "1FTFW1ET1EFA000012"} {
		_, err := svc.GetVehicleDetails(context.Background(), vin)
		assert.ErrorIs(t, err, validation.ErrInvalidVIN, vin)
		assert.Equal(t, KindInvalidInput, Classify(err), vin)

		_, err = svc.GetVehicleReport(context.Background(), vin)
		assert.ErrorIs(t, err, validation.ErrInvalidVIN, vin)
	}

	assert.Empty(t, fetcher.calls, "no outbound call for malformed VIN")
	assert.Empty(t, recorder.lookups)
	assert.Empty(t, publisher.states)
}

func TestLookupService_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"invalid vin", chromedata.ErrInvalidVIN, KindInvalidInput},
		{"invalid payload", fmt.Errorf("decode: %w", chromedata.ErrInvalidPayload), KindInvalidInput},
		{"not found", &chromedata.ProviderError{StatusCode: 404, Body: "not found"}, KindNotFound},
		{"transport", &chromedata.ProviderError{Err: errors.New("connection refused")}, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			publisher := &fakePublisher{}
			svc := NewLookupService(zap.NewNop(), &fakeFetcher{err: tt.err}, &fakeRenderer{},
				WithRecorder(recorder), WithPublisher(publisher))

			details, err := svc.GetVehicleDetails(context.Background(), testVIN)
			assert.Nil(t, details)
			require.Error(t, err)
			assert.Equal(t, tt.kind, Classify(err))

			require.Len(t, recorder.lookups, 1)
			assert.Equal(t, models.LookupStatusFailed, recorder.lookups[0].Status)
			require.NotNil(t, recorder.lookups[0].Error)
			assert.Equal(t, err.Error(), *recorder.lookups[0].Error)

			require.Len(t, publisher.states, 2)
			assert.Equal(t, state.StateFailed, publisher.states[1].To)
			assert.Equal(t, err.Error(), publisher.states[1].Error)
		})
	}
}

func TestLookupService_NilRecordIsInvalidPayload(t *testing.T) {
	svc := NewLookupService(zap.NewNop(), &fakeFetcher{}, &fakeRenderer{})

	_, err := svc.GetVehicleDetails(context.Background(), testVIN)
	assert.ErrorIs(t, err, chromedata.ErrInvalidPayload)
}

func TestLookupService_RecorderFailureDoesNotFailLookup(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("db down")}
	svc := NewLookupService(zap.NewNop(), &fakeFetcher{record: fordRecord(t)}, &fakeRenderer{}, WithRecorder(recorder))

	details, err := svc.GetVehicleDetails(context.Background(), testVIN)
	require.NoError(t, err)
	assert.Equal(t, testVIN, details.VIN)
	assert.Len(t, recorder.lookups, 1)
}

func TestLookupService_GetVehicleReport(t *testing.T) {
	rec := fordRecord(t)
	renderer := &fakeRenderer{}
	recorder := &fakeRecorder{}
	svc := NewLookupService(zap.NewNop(), &fakeFetcher{record: rec}, renderer, WithRecorder(recorder))

	pdf, err := svc.GetVehicleReport(context.Background(), testVIN)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), pdf)
	assert.Equal(t, testVIN, renderer.vin)
	assert.Equal(t, rec.Raw.JSON(), renderer.doc.JSON())

	require.Len(t, recorder.lookups, 1)
	assert.Equal(t, models.LookupKindReport, recorder.lookups[0].Kind)
	assert.Equal(t, models.LookupStatusOK, recorder.lookups[0].Status)
}

func TestLookupService_GetVehicleReport_RealRenderer(t *testing.T) {
	svc := NewLookupService(zap.NewNop(), &fakeFetcher{record: fordRecord(t)}, report.NewRenderer("", zap.NewNop()))

	pdf, err := svc.GetVehicleReport(context.Background(), testVIN)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestLookupService_GetVehicleReport_RenderFailure(t *testing.T) {
	publisher := &fakePublisher{}
	renderer := &fakeRenderer{err: fmt.Errorf("draw table: %w", report.ErrReportGeneration)}
	svc := NewLookupService(zap.NewNop(), &fakeFetcher{record: fordRecord(t)}, renderer, WithPublisher(publisher))

	pdf, err := svc.GetVehicleReport(context.Background(), testVIN)
	assert.Nil(t, pdf)
	assert.Equal(t, KindReportFailure, Classify(err))

	require.Len(t, publisher.states, 3)
	assert.Equal(t, state.StateFetched, publisher.states[2].From)
	assert.Equal(t, state.StateFailed, publisher.states[2].To)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindUnknown, Classify(nil))
	assert.Equal(t, KindUnknown, Classify(errors.New("boom")))
	assert.Equal(t, KindReportFailure, Classify(report.ErrReportGeneration))
	assert.Equal(t, KindNotFound, Classify(fmt.Errorf("wrap: %w", &chromedata.ProviderError{StatusCode: 500})))
}
