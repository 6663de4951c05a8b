package route

// tRPC GET calls carry their arguments as a JSON document in the "input"
// query parameter. The "meta" block is superjson metadata marking which
// fields were undefined on the browser side.

type batchInput struct {
	JSON any `json:"json"`
	Meta any `json:"meta"`
}

type undefinedValues struct {
	Values any `json:"values"`
}

type programmeFilter struct {
	SearchQuery          string  `json:"searchQuery"`
	VenueID              *string `json:"venueId"`
	MinAgeFilter         *int    `json:"minAgeFilter"`
	MaxAgeFilter         *int    `json:"maxAgeFilter"`
	SexFilter            *string `json:"sexFilter"`
	PostalCode           *string `json:"postalCode"`
	FirstSessionFromDate *string `json:"firstSessionFromDate"`
	LastSessionTillDate  *string `json:"lastSessionTillDate"`
	Limit                int     `json:"limit"`
	Cursor               *string `json:"cursor"`
}

// noInput is {"json":null,"meta":{"values":["undefined"]}}.
func noInput(string) any {
	return batchInput{
		JSON: nil,
		Meta: undefinedValues{Values: []string{"undefined"}},
	}
}

// programmeSearch filters programmes by free-text query, first page only.
func programmeSearch(query string) any {
	return batchInput{
		JSON: programmeFilter{SearchQuery: query, Limit: activityPageSize},
		Meta: undefinedValues{Values: map[string][]string{"cursor": {"undefined"}}},
	}
}
