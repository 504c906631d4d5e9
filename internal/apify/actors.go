package apify

type ActorId string

type actorIds struct {
	TwitterListScraper ActorId
}

// ActorIds registers the hosted actors this worker is allowed to invoke.
var ActorIds = actorIds{
	TwitterListScraper: "apidojo~twitter-list-scraper",
}
