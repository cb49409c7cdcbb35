package constants

// Имена обменников
const (
	ScraperExchange = "scraper_exchange"
)

// Имена очередей
const (
	QueueParsedListings = "parsed_listings"
)

// Ключи маршрутизации
const (
	RoutingKeyParsedListings = "dedup.listings.filter"

	RoutingKeyRunReports = "notify.run.result"
)
