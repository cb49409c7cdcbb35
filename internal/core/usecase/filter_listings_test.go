package usecase

import (
	"context"
	"errors"
	"testing"

	"cireba-dedup-service/internal/core/domain"

	"github.com/google/uuid"
)

type fakeReferenceCache struct {
	references []domain.ReferenceListing
	err        error
	calls      int
}

func (f *fakeReferenceCache) LoadAll(ctx context.Context) ([]domain.ReferenceListing, error) {
	f.calls++
	return f.references, f.err
}

func (f *fakeReferenceCache) CountBySource(ctx context.Context) (map[domain.Source]int64, error) {
	return nil, errors.New("not implemented in fake")
}

type fakeListingStorage struct {
	inserted [][]domain.ListingRow
	err      error
}

func (f *fakeListingStorage) InsertRows(ctx context.Context, rows []domain.ListingRow) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.inserted = append(f.inserted, rows)
	return len(rows), nil
}

type fakeDuplicateNotifier struct {
	reports []domain.DuplicateReport
	err     error
}

func (f *fakeDuplicateNotifier) ReportDuplicates(ctx context.Context, report domain.DuplicateReport) error {
	f.reports = append(f.reports, report)
	return f.err
}

type fakeRunReporter struct {
	summaries []domain.RunSummary
	err       error
}

func (f *fakeRunReporter) ReportRun(ctx context.Context, taskID uuid.UUID, summary domain.RunSummary) error {
	f.summaries = append(f.summaries, summary)
	return f.err
}

func newFilterFixture(cache *fakeReferenceCache, storage *fakeListingStorage, notifier *fakeDuplicateNotifier, reporter *fakeRunReporter) *FilterListingsUseCase {
	uc := NewFilterListingsUseCase(
		cache,
		NewPriceNameMatchStrategy(100, 85),
		NewNormalizeListingUseCase(200000),
		storage,
		notifier,
		reporter,
		FilterListingsConfig{IncludeMLSNumber: false},
	)
	return uc
}

func TestFilterListingsPartition(t *testing.T) {
	cache := &fakeReferenceCache{references: []domain.ReferenceListing{
		{ID: 1, Name: "Sandscape Residences #19", PriceUSD: 330000, Source: domain.SourceCireba},
	}}
	storage := &fakeListingStorage{}
	notifier := &fakeDuplicateNotifier{}
	reporter := &fakeRunReporter{}
	uc := newFilterFixture(cache, storage, notifier, reporter)

	batches := map[string][]domain.RawListing{
		"https://ecaytrade.com/real-estate": {
			{Name: "Sandscape Residences #19", Price: "330,050", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
			{Name: "Rum Point Beachfront Parcel", Price: "900,000", Currency: "US$", Link: "https://ecaytrade.com/ad/2"},
			{Name: "Cheap fixer-upper", Price: "85,000", Currency: "US$", Link: "https://ecaytrade.com/ad/3"},
		},
	}

	result, err := uc.Execute(context.Background(), batches, uuid.New())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if result.InputCount != 3 {
		t.Errorf("InputCount = %d; want 3", result.InputCount)
	}
	if len(result.New) != 1 || result.New[0].Name != "Rum Point Beachfront Parcel" {
		t.Errorf("New = %v; want exactly the beachfront parcel", result.New)
	}
	if len(result.Duplicates) != 1 || result.Duplicates[0].MatchedReference.ID != 1 {
		t.Errorf("Duplicates = %v; want exactly one match against reference 1", result.Duplicates)
	}
	if result.SkippedBelowMinPrice != 1 {
		t.Errorf("SkippedBelowMinPrice = %d; want 1", result.SkippedBelowMinPrice)
	}

	if len(storage.inserted) != 1 || len(storage.inserted[0]) != 1 {
		t.Fatalf("storage.inserted = %v; want one batch with one row", storage.inserted)
	}
	if storage.inserted[0][0].Name != "Rum Point Beachfront Parcel" {
		t.Errorf("inserted row name = %q; want the new listing only", storage.inserted[0][0].Name)
	}

	if len(notifier.reports) != 1 {
		t.Fatalf("notifier.reports = %d; want 1", len(notifier.reports))
	}
	if notifier.reports[0].Summary.DuplicateCount != 1 {
		t.Errorf("report DuplicateCount = %d; want 1", notifier.reports[0].Summary.DuplicateCount)
	}

	if len(reporter.summaries) != 1 {
		t.Fatalf("reporter.summaries = %d; want 1", len(reporter.summaries))
	}
	summary := reporter.summaries[0]
	if summary.TotalProcessed != 2 || summary.NewCount != 1 || summary.DuplicateCount != 1 || summary.SkippedCount != 1 {
		t.Errorf("summary = %+v; want processed=2 new=1 duplicates=1 skipped=1", summary)
	}
	if summary.Source != domain.SourceEcayTrade {
		t.Errorf("summary.Source = %q; want %q", summary.Source, domain.SourceEcayTrade)
	}
}

// Повтор внутри пачки учитывается во входном счетчике, но обрабатывается один раз.
func TestFilterListingsIntraBatchDedup(t *testing.T) {
	cache := &fakeReferenceCache{}
	storage := &fakeListingStorage{}
	uc := newFilterFixture(cache, storage, &fakeDuplicateNotifier{}, &fakeRunReporter{})

	batches := map[string][]domain.RawListing{
		"https://ecaytrade.com/real-estate": {
			{Name: "Same ad", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
			{Name: "Same ad", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
			{Name: "Same ad paginated", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1?page=2"},
			{Name: "Same ad paginated", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1?page=3"},
		},
	}

	result, err := uc.Execute(context.Background(), batches, uuid.New())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if result.InputCount != 4 {
		t.Errorf("InputCount = %d; want 4", result.InputCount)
	}
	// ad/1 схлопывается по ссылке, пагинированные копии - по тройке полей.
	if len(result.New) != 2 {
		t.Errorf("len(New) = %d; want 2", len(result.New))
	}
}

func TestFilterListingsCacheErrorAborts(t *testing.T) {
	cache := &fakeReferenceCache{err: errors.New("connection refused")}
	storage := &fakeListingStorage{}
	uc := newFilterFixture(cache, storage, &fakeDuplicateNotifier{}, &fakeRunReporter{})

	batches := map[string][]domain.RawListing{
		"https://ecaytrade.com/real-estate": {
			{Name: "Anything", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
		},
	}

	if _, err := uc.Execute(context.Background(), batches, uuid.New()); err == nil {
		t.Fatal("expected an error when the reference cache cannot be loaded")
	}
	if len(storage.inserted) != 0 {
		t.Error("nothing must be written when the run aborts on cache load")
	}
}

func TestFilterListingsCancelledContext(t *testing.T) {
	cache := &fakeReferenceCache{}
	storage := &fakeListingStorage{}
	uc := newFilterFixture(cache, storage, &fakeDuplicateNotifier{}, &fakeRunReporter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batches := map[string][]domain.RawListing{
		"https://ecaytrade.com/real-estate": {
			{Name: "Anything", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
		},
	}

	if _, err := uc.Execute(ctx, batches, uuid.New()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute error = %v; want context.Canceled", err)
	}
	if len(storage.inserted) != 0 {
		t.Error("no partial writes on cancellation")
	}
}

func TestFilterListingsNotifierFailureIgnored(t *testing.T) {
	cache := &fakeReferenceCache{references: []domain.ReferenceListing{
		{ID: 1, Name: "Known listing", PriceUSD: 400000, Source: domain.SourceCireba},
	}}
	storage := &fakeListingStorage{}
	notifier := &fakeDuplicateNotifier{err: errors.New("webhook down")}
	uc := newFilterFixture(cache, storage, notifier, &fakeRunReporter{})

	batches := map[string][]domain.RawListing{
		"https://ecaytrade.com/real-estate": {
			{Name: "Known listing", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
		},
	}

	result, err := uc.Execute(context.Background(), batches, uuid.New())
	if err != nil {
		t.Fatalf("Execute must succeed despite notifier failure, got: %v", err)
	}
	if len(result.Duplicates) != 1 {
		t.Errorf("len(Duplicates) = %d; want 1", len(result.Duplicates))
	}
}

func TestFilterListingsStorageErrorPropagates(t *testing.T) {
	cache := &fakeReferenceCache{}
	storage := &fakeListingStorage{err: errors.New("insert failed")}
	uc := newFilterFixture(cache, storage, &fakeDuplicateNotifier{}, &fakeRunReporter{})

	batches := map[string][]domain.RawListing{
		"https://ecaytrade.com/real-estate": {
			{Name: "New listing", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
		},
	}

	if _, err := uc.Execute(context.Background(), batches, uuid.New()); err == nil {
		t.Fatal("expected storage error to propagate")
	}
}

func TestFilterListingsNilReporterAllowed(t *testing.T) {
	cache := &fakeReferenceCache{}
	storage := &fakeListingStorage{}

	uc := NewFilterListingsUseCase(
		cache,
		NewPriceNameMatchStrategy(100, 85),
		NewNormalizeListingUseCase(200000),
		storage,
		&fakeDuplicateNotifier{},
		nil,
		FilterListingsConfig{},
	)

	batches := map[string][]domain.RawListing{
		"https://ecaytrade.com/real-estate": {
			{Name: "New listing", Price: "400,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
		},
	}

	if _, err := uc.Execute(context.Background(), batches, uuid.New()); err != nil {
		t.Fatalf("Execute with nil reporter returned error: %v", err)
	}
}
