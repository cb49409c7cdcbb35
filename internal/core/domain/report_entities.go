package domain

import "time"

// RunSummary - итоговые счетчики одного прогона фильтрации.
type RunSummary struct {
	Source         Source
	Timestamp      time.Time
	TotalProcessed int
	DuplicateCount int
	NewCount       int
	SkippedCount   int
}

// DuplicateEntry - одна найденная пара "кандидат - эталонная запись" для отчета.
type DuplicateEntry struct {
	Candidate  NormalizedListing
	Reference  ReferenceListing
	Similarity float64
}

// DuplicateReport - пакетный отчет о дубликатах, отправляемый во внешний sink
// после завершения разбиения. Доставка отчета не влияет на результат прогона.
type DuplicateReport struct {
	Summary    RunSummary
	Duplicates []DuplicateEntry
}
