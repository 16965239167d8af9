package repository

// TableSpec describes one destination table: the full column list the
// writer binds (absent row keys become NULL) and the conflict key the
// upsert resolves on.
type TableSpec struct {
	Name        string
	Columns     []string
	ConflictKey []string
}

// Destination tables owned by the ingestion engine. Tables are only ever
// mutated through the upsert writer; nothing truncates or deletes.
var (
	FixturesTable = TableSpec{
		Name: "fixtures",
		Columns: []string{
			"id", "sport_id", "league_id", "season_id", "stage_id", "group_id",
			"aggregate_id", "round_id", "state_id", "venue_id", "name",
			"starting_at", "result_info", "leg", "details", "length",
			"placeholder", "has_odds", "has_premium_odds",
			"starting_at_timestamp", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	FixtureEventsTable = TableSpec{
		Name: "fixture_events",
		Columns: []string{
			"id", "fixture_id", "period_id", "detailed_period_id",
			"participant_id", "type_id", "sub_type_id", "coach_id", "player_id",
			"related_player_id", "player_name", "related_player_name", "result",
			"info", "addition", "minute", "extra_minute", "injured", "on_bench",
			"rescinded", "section", "sort_order", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	FixtureStatisticsTable = TableSpec{
		Name: "fixture_statistics",
		Columns: []string{
			"id", "fixture_id", "participant_id", "player_id", "type_id",
			"location", "value_numeric", "value_text", "data", "type_name",
			"type_code", "stat_group", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	FixtureParticipantsTable = TableSpec{
		Name: "fixture_participants",
		Columns: []string{
			"fixture_id", "participant_id", "location", "winner", "position",
			"meta", "updated_at",
		},
		ConflictKey: []string{"fixture_id", "participant_id"},
	}

	FixtureScoresTable = TableSpec{
		Name: "fixture_scores",
		Columns: []string{
			"id", "fixture_id", "participant_id", "type_id", "score",
			"description", "result", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	FixturePeriodsTable = TableSpec{
		Name: "fixture_periods",
		Columns: []string{
			"id", "fixture_id", "type_id", "started", "ended", "counts_from",
			"ticking", "sort_order", "description", "time_added",
			"period_length", "minutes", "seconds", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	FixtureLineupsTable = TableSpec{
		Name: "fixture_lineups",
		Columns: []string{
			"id", "fixture_id", "participant_id", "player_id", "position_id",
			"jersey_number", "player_name", "formation_field",
			"formation_position", "posx", "posy", "captain", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	FixtureLineupDetailsTable = TableSpec{
		Name: "fixture_lineup_details",
		Columns: []string{
			"id", "fixture_id", "lineup_id", "participant_id", "player_id",
			"related_player_id", "type_id", "formation_field",
			"formation_position", "minute", "additional_position_id",
			"jersey_number", "player_name", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	FixtureOddsTable = TableSpec{
		Name: "fixture_odds",
		Columns: []string{
			"id", "fixture_id", "bookmaker_id", "market_id", "label", "value",
			"probability", "dp3", "fractional", "american", "winning",
			"stopped", "handicap", "participant", "latest_bookmaker_update",
			"updated_at",
		},
		ConflictKey: []string{"id"},
	}

	FixtureWeatherTable = TableSpec{
		Name: "fixture_weather",
		Columns: []string{
			"fixture_id", "description", "icon", "condition_code",
			"temperature_day", "temperature_night", "wind_speed", "wind_degree",
			"humidity", "pressure", "data", "updated_at",
		},
		ConflictKey: []string{"fixture_id"},
	}

	FixtureRefereesTable = TableSpec{
		Name: "fixture_referees",
		Columns: []string{
			"fixture_id", "referee_id", "role", "updated_at",
		},
		ConflictKey: []string{"fixture_id", "referee_id"},
	}

	RefereesTable = TableSpec{
		Name: "referees",
		Columns: []string{
			"id", "sport_id", "country_id", "city_id", "common_name",
			"firstname", "lastname", "name", "display_name", "image_path",
			"height", "weight", "date_of_birth", "gender", "updated_at",
		},
		ConflictKey: []string{"id"},
	}
)

// Reference tables populated by seeding.
var (
	ContinentsTable = TableSpec{
		Name:        "continents",
		Columns:     []string{"id", "name", "code", "updated_at"},
		ConflictKey: []string{"id"},
	}

	CountriesTable = TableSpec{
		Name: "countries",
		Columns: []string{
			"id", "continent_id", "name", "official_name", "fifa_name", "iso2",
			"iso3", "latitude", "longitude", "borders", "image_path",
			"updated_at",
		},
		ConflictKey: []string{"id"},
	}

	RegionsTable = TableSpec{
		Name:        "regions",
		Columns:     []string{"id", "country_id", "name", "updated_at"},
		ConflictKey: []string{"id"},
	}

	CitiesTable = TableSpec{
		Name: "cities",
		Columns: []string{
			"id", "country_id", "region_id", "name", "latitude", "longitude",
			"updated_at",
		},
		ConflictKey: []string{"id"},
	}

	CoreTypesTable = TableSpec{
		Name: "core_types",
		Columns: []string{
			"id", "name", "code", "developer_name", "model_type", "stat_group",
			"updated_at",
		},
		ConflictKey: []string{"id"},
	}

	VenuesTable = TableSpec{
		Name: "venues",
		Columns: []string{
			"id", "country_id", "city_id", "name", "address", "zipcode",
			"latitude", "longitude", "capacity", "image_path", "city_name",
			"surface", "national_team", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	LeaguesTable = TableSpec{
		Name: "leagues",
		Columns: []string{
			"id", "sport_id", "country_id", "name", "active", "short_code",
			"image_path", "type", "sub_type", "last_played_at", "category",
			"has_jerseys", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	SeasonsTable = TableSpec{
		Name: "seasons",
		Columns: []string{
			"id", "sport_id", "league_id", "tie_breaker_rule_id", "name",
			"finished", "pending", "is_current", "starting_at", "ending_at",
			"standings_recalculated_at", "games_in_current_week", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	StatesTable = TableSpec{
		Name: "states",
		Columns: []string{
			"id", "state", "name", "short_name", "developer_name", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	StagesTable = TableSpec{
		Name: "stages",
		Columns: []string{
			"id", "sport_id", "league_id", "season_id", "type_id", "name",
			"sort_order", "finished", "is_current", "starting_at", "ending_at",
			"games_in_current_week", "tie_breaker_rule_id", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	RoundsTable = TableSpec{
		Name: "rounds",
		Columns: []string{
			"id", "sport_id", "league_id", "season_id", "stage_id", "name",
			"finished", "is_current", "starting_at", "ending_at",
			"games_in_current_week", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	TeamsTable = TableSpec{
		Name: "teams",
		Columns: []string{
			"id", "sport_id", "country_id", "venue_id", "gender", "name",
			"short_code", "image_path", "founded", "type", "placeholder",
			"last_played_at", "updated_at",
		},
		ConflictKey: []string{"id"},
	}

	PlayersTable = TableSpec{
		Name: "players",
		Columns: []string{
			"id", "sport_id", "country_id", "nationality_id", "city_id",
			"position_id", "detailed_position_id", "type_id", "common_name",
			"firstname", "lastname", "name", "display_name", "image_path",
			"height", "weight", "date_of_birth", "gender", "updated_at",
		},
		ConflictKey: []string{"id"},
	}
)
