package mapper

// Fixture maps a raw fixture record to a fixtures row. runTS is the single
// run-scoped timestamp shared by every row written in one invocation.
func Fixture(raw map[string]any, runTS string) Row {
	return Row{
		"id":                    raw["id"],
		"sport_id":              raw["sport_id"],
		"league_id":             raw["league_id"],
		"season_id":             raw["season_id"],
		"stage_id":              raw["stage_id"],
		"group_id":              raw["group_id"],
		"aggregate_id":          raw["aggregate_id"],
		"round_id":              raw["round_id"],
		"state_id":              raw["state_id"],
		"venue_id":              raw["venue_id"],
		"name":                  raw["name"],
		"starting_at":           ToTimestamp(raw["starting_at"]),
		"result_info":           raw["result_info"],
		"leg":                   raw["leg"],
		"details":               raw["details"],
		"length":                ToInt(raw["length"]),
		"placeholder":           BoolOr(raw["placeholder"], false),
		"has_odds":              BoolOr(raw["has_odds"], false),
		"has_premium_odds":      BoolOr(raw["has_premium_odds"], false),
		"starting_at_timestamp": ToInt(raw["starting_at_timestamp"]),
		"updated_at":            runTS,
	}
}

// Event maps a nested fixture event.
func Event(event map[string]any, runTS string) Row {
	return Row{
		"id":                  event["id"],
		"fixture_id":          event["fixture_id"],
		"period_id":           event["period_id"],
		"detailed_period_id":  event["detailed_period_id"],
		"participant_id":      event["participant_id"],
		"type_id":             event["type_id"],
		"sub_type_id":         event["sub_type_id"],
		"coach_id":            event["coach_id"],
		"player_id":           event["player_id"],
		"related_player_id":   event["related_player_id"],
		"player_name":         event["player_name"],
		"related_player_name": event["related_player_name"],
		"result":              event["result"],
		"info":                event["info"],
		"addition":            event["addition"],
		"minute":              ToInt(event["minute"]),
		"extra_minute":        ToInt(event["extra_minute"]),
		"injured":             ToBool(event["injured"]),
		"on_bench":            ToBool(event["on_bench"]),
		"rescinded":           ToBool(event["rescinded"]),
		"section":             event["section"],
		"sort_order":          ToInt(event["sort_order"]),
		"updated_at":          runTS,
	}
}

// Statistic maps a nested fixture statistic, projecting the statistic
// value both numerically and as text via StatValue.
func Statistic(stat map[string]any, runTS string) Row {
	numeric, text := StatValue(stat)
	row := Row{
		"id":             stat["id"],
		"fixture_id":     stat["fixture_id"],
		"participant_id": stat["participant_id"],
		"player_id":      stat["player_id"],
		"type_id":        stat["type_id"],
		"location":       stat["location"],
		"value_numeric":  numeric,
		"value_text":     text,
		"data":           stat["data"],
		"updated_at":     runTS,
	}
	if typ, ok := stat["type"].(map[string]any); ok {
		row["type_name"] = typ["name"]
		row["type_code"] = typ["code"]
		row["stat_group"] = typ["stat_group"]
	}
	return row
}

// Participant maps a fixture participant. The interesting bits live under
// meta (location/side, winner, table position).
func Participant(participant map[string]any, fixtureID any, runTS string) Row {
	row := Row{
		"fixture_id":     fixtureID,
		"participant_id": participant["id"],
		"updated_at":     runTS,
	}
	if meta, ok := participant["meta"].(map[string]any); ok {
		row["location"] = field(meta, "location", "side")
		row["winner"] = ToBool(meta["winner"])
		row["position"] = ToInt(meta["position"])
		row["meta"] = meta
	}
	return row
}

// Score maps a fixture score line. Older payloads nest the goal counts
// under score, newer ones inline them; either way the object is stored as
// the score column.
func Score(score map[string]any, fixtureID any, runTS string) Row {
	payload := any(score)
	if nested, ok := score["score"].(map[string]any); ok {
		payload = nested
	}
	return Row{
		"id":             score["id"],
		"fixture_id":     fixtureID,
		"participant_id": score["participant_id"],
		"type_id":        score["type_id"],
		"score":          payload,
		"description":    score["description"],
		"result":         score["result"],
		"updated_at":     runTS,
	}
}

// Period maps a fixture period.
func Period(period map[string]any, runTS string) Row {
	return Row{
		"id":            period["id"],
		"fixture_id":    period["fixture_id"],
		"type_id":       period["type_id"],
		"started":       BoolOr(period["started"], false),
		"ended":         BoolOr(period["ended"], false),
		"counts_from":   ToInt(period["counts_from"]),
		"ticking":       BoolOr(period["ticking"], false),
		"sort_order":    ToInt(period["sort_order"]),
		"description":   period["description"],
		"time_added":    ToInt(period["time_added"]),
		"period_length": ToInt(period["period_length"]),
		"minutes":       ToInt(period["minutes"]),
		"seconds":       ToInt(period["seconds"]),
		"updated_at":    runTS,
	}
}

// Lineup maps a lineup entry.
func Lineup(lineup map[string]any, runTS string) Row {
	row := Row{
		"id":                 lineup["id"],
		"fixture_id":         lineup["fixture_id"],
		"participant_id":     field(lineup, "participant_id", "team_id"),
		"player_id":          lineup["player_id"],
		"position_id":        field(lineup, "position_id", "type_id"),
		"jersey_number":      ToInt(lineup["jersey_number"]),
		"player_name":        lineup["player_name"],
		"formation_field":    ToInt(lineup["formation_field"]),
		"formation_position": ToInt(lineup["formation_position"]),
		"posx":               ToInt(lineup["posx"]),
		"posy":               ToInt(lineup["posy"]),
		"captain":            BoolOr(lineup["captain"], false),
		"updated_at":         runTS,
	}
	if row["player_name"] == nil {
		if player, ok := lineup["player"].(map[string]any); ok {
			row["player_name"] = player["display_name"]
		}
	}
	return row
}

// LineupDetail maps a per-player lineup detail. The parent lineup id is
// carried explicitly because the upstream omits it on the nested record.
func LineupDetail(detail map[string]any, fixtureID, lineupID any, runTS string) Row {
	row := Row{
		"id":                     detail["id"],
		"fixture_id":             fixtureID,
		"lineup_id":              lineupID,
		"participant_id":         field(detail, "participant_id", "team_id"),
		"player_id":              detail["player_id"],
		"related_player_id":      field(detail, "related_player_id", "substitution_player_id"),
		"type_id":                detail["type_id"],
		"formation_field":        ToInt(detail["formation_field"]),
		"formation_position":     ToInt(detail["formation_position"]),
		"minute":                 ToInt(detail["minute"]),
		"additional_position_id": detail["additional_position_id"],
		"jersey_number":          ToInt(detail["jersey_number"]),
		"player_name":            detail["player_name"],
		"updated_at":             runTS,
	}
	if row["player_name"] == nil {
		if player, ok := detail["player"].(map[string]any); ok {
			row["player_name"] = player["display_name"]
		}
	}
	return row
}

// Odds maps a bookmaker odds line.
func Odds(odd map[string]any, fixtureID any, runTS string) Row {
	return Row{
		"id":                      odd["id"],
		"fixture_id":              fixtureID,
		"bookmaker_id":            odd["bookmaker_id"],
		"market_id":               odd["market_id"],
		"label":                   field(odd, "label", "name"),
		"value":                   ToFloat(odd["value"]),
		"probability":             ToFloat(odd["probability"]),
		"dp3":                     odd["dp3"],
		"fractional":              odd["fractional"],
		"american":                odd["american"],
		"winning":                 ToBool(odd["winning"]),
		"stopped":                 ToBool(odd["stopped"]),
		"handicap":                ToFloat(odd["handicap"]),
		"participant":             odd["participant"],
		"latest_bookmaker_update": ToTimestamp(odd["latest_bookmaker_update"]),
		"updated_at":              runTS,
	}
}

// Weather maps the per-fixture weather report. One row per fixture, keyed
// by fixture_id.
func Weather(report map[string]any, fixtureID any, runTS string) Row {
	row := Row{
		"fixture_id":  fixtureID,
		"description": field(report, "description", "condition"),
		"icon":        report["icon"],
		"data":        report,
		"updated_at":  runTS,
	}
	if temp, ok := report["temperature"].(map[string]any); ok {
		row["temperature_day"] = ToFloat(temp["day"])
		row["temperature_night"] = ToFloat(temp["night"])
	} else {
		row["temperature_day"] = ToFloat(report["temperature"])
	}
	if wind, ok := report["wind"].(map[string]any); ok {
		row["wind_speed"] = ToFloat(wind["speed"])
		row["wind_degree"] = ToFloat(wind["degree"])
	}
	row["humidity"] = ToFloat(report["humidity"])
	row["pressure"] = ToFloat(report["pressure"])
	if cond, ok := report["condition"].(map[string]any); ok {
		row["description"] = cond["description"]
		row["condition_code"] = cond["code"]
	}
	return row
}

// FixtureReferee maps the fixture-to-referee link row for the main
// referee of a fixture.
func FixtureReferee(refereeID, fixtureID any, runTS string) Row {
	return Row{
		"fixture_id": fixtureID,
		"referee_id": refereeID,
		"role":       "main",
		"updated_at": runTS,
	}
}

// RefereeMaster maps a referee master record, either from the nested
// fixture include or from a direct referees lookup.
func RefereeMaster(ref map[string]any, runTS string) Row {
	sportID := ToInt(ref["sport_id"])
	if sportID == nil {
		sportID = int64(1)
	}
	return Row{
		"id":            field(ref, "referee_id", "id"),
		"sport_id":      sportID,
		"country_id":    ToInt(ref["country_id"]),
		"city_id":       ToInt(ref["city_id"]),
		"common_name":   ref["common_name"],
		"firstname":     ref["firstname"],
		"lastname":      ref["lastname"],
		"name":          field(ref, "name", "display_name"),
		"display_name":  ref["display_name"],
		"image_path":    ref["image_path"],
		"height":        ToInt(ref["height"]),
		"weight":        ToInt(ref["weight"]),
		"date_of_birth": ref["date_of_birth"],
		"gender":        ref["gender"],
		"updated_at":    runTS,
	}
}
