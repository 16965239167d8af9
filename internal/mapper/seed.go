package mapper

// SeedContext tracks the ids produced so far during reference-data
// seeding. Entity types reference one another (a venue points at a
// country and a city) and the upstream occasionally returns dangling
// foreign keys; Ensure nils those out against the ids actually seen, so
// dependency resolution is explicit instead of relying on load order.
type SeedContext struct {
	sets map[string]map[int64]struct{}
}

func NewSeedContext() *SeedContext {
	return &SeedContext{sets: make(map[string]map[int64]struct{})}
}

// Register records the ids of the rows just written for an entity.
func (c *SeedContext) Register(entity string, rows []Row) {
	set, ok := c.sets[entity]
	if !ok {
		set = make(map[int64]struct{}, len(rows))
		c.sets[entity] = set
	}
	for _, row := range rows {
		if id := ToInt(row["id"]); id != nil {
			set[id.(int64)] = struct{}{}
		}
	}
}

// Has reports whether an entity has any registered ids.
func (c *SeedContext) Has(entity string) bool {
	return len(c.sets[entity]) > 0
}

// Ensure returns the coerced id when it is registered for the entity, nil
// otherwise. An unregistered entity passes every id through: seeding a
// subset of tasks must not wipe foreign keys whose referents were loaded
// in an earlier run.
func (c *SeedContext) Ensure(entity string, v any) any {
	id := ToInt(v)
	if id == nil {
		return nil
	}
	set, ok := c.sets[entity]
	if !ok {
		return id
	}
	if _, known := set[id.(int64)]; known {
		return id
	}
	return nil
}

// Continent maps a core continent record.
func Continent(raw map[string]any, _ *SeedContext, runTS string) Row {
	return Row{
		"id":         raw["id"],
		"name":       raw["name"],
		"code":       raw["code"],
		"updated_at": runTS,
	}
}

// Country maps a core country record.
func Country(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":            raw["id"],
		"continent_id":  sc.Ensure("continents", raw["continent_id"]),
		"name":          raw["name"],
		"official_name": raw["official_name"],
		"fifa_name":     raw["fifa_name"],
		"iso2":          raw["iso2"],
		"iso3":          raw["iso3"],
		"latitude":      ToFloat(raw["latitude"]),
		"longitude":     ToFloat(raw["longitude"]),
		"borders":       raw["borders"],
		"image_path":    raw["image_path"],
		"updated_at":    runTS,
	}
}

// Region maps a core region record.
func Region(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":         raw["id"],
		"country_id": sc.Ensure("countries", raw["country_id"]),
		"name":       raw["name"],
		"updated_at": runTS,
	}
}

// City maps a core city record.
func City(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":         raw["id"],
		"country_id": sc.Ensure("countries", raw["country_id"]),
		"region_id":  sc.Ensure("regions", raw["region_id"]),
		"name":       raw["name"],
		"latitude":   ToFloat(raw["latitude"]),
		"longitude":  ToFloat(raw["longitude"]),
		"updated_at": runTS,
	}
}

// CoreType maps a core type record (event types, statistic types, ...).
func CoreType(raw map[string]any, _ *SeedContext, runTS string) Row {
	return Row{
		"id":             raw["id"],
		"name":           raw["name"],
		"code":           raw["code"],
		"developer_name": raw["developer_name"],
		"model_type":     raw["model_type"],
		"stat_group":     raw["stat_group"],
		"updated_at":     runTS,
	}
}

// Venue maps a football venue record.
func Venue(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":            raw["id"],
		"country_id":    sc.Ensure("countries", raw["country_id"]),
		"city_id":       sc.Ensure("cities", raw["city_id"]),
		"name":          raw["name"],
		"address":       raw["address"],
		"zipcode":       raw["zipcode"],
		"latitude":      ToFloat(raw["latitude"]),
		"longitude":     ToFloat(raw["longitude"]),
		"capacity":      ToInt(raw["capacity"]),
		"image_path":    raw["image_path"],
		"city_name":     raw["city_name"],
		"surface":       raw["surface"],
		"national_team": BoolOr(raw["national_team"], false),
		"updated_at":    runTS,
	}
}

// League maps a football league record.
func League(raw map[string]any, sc *SeedContext, runTS string) Row {
	active := raw["active"]
	if active == nil {
		active = true
	}
	return Row{
		"id":             raw["id"],
		"sport_id":       raw["sport_id"],
		"country_id":     sc.Ensure("countries", raw["country_id"]),
		"name":           raw["name"],
		"active":         BoolOr(active, true),
		"short_code":     raw["short_code"],
		"image_path":     raw["image_path"],
		"type":           raw["type"],
		"sub_type":       raw["sub_type"],
		"last_played_at": ToTimestamp(raw["last_played_at"]),
		"category":       ToInt(raw["category"]),
		"has_jerseys":    BoolOr(raw["has_jerseys"], false),
		"updated_at":     runTS,
	}
}

// Season maps a football season record.
func Season(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":                        raw["id"],
		"sport_id":                  raw["sport_id"],
		"league_id":                 sc.Ensure("leagues", raw["league_id"]),
		"tie_breaker_rule_id":       raw["tie_breaker_rule_id"],
		"name":                      raw["name"],
		"finished":                  BoolOr(raw["finished"], false),
		"pending":                   BoolOr(raw["pending"], false),
		"is_current":                BoolOr(raw["is_current"], false),
		"starting_at":               ToTimestamp(raw["starting_at"]),
		"ending_at":                 ToTimestamp(raw["ending_at"]),
		"standings_recalculated_at": ToTimestamp(raw["standings_recalculated_at"]),
		"games_in_current_week":     BoolOr(raw["games_in_current_week"], false),
		"updated_at":                runTS,
	}
}

// State maps a football fixture state record.
func State(raw map[string]any, _ *SeedContext, runTS string) Row {
	return Row{
		"id":             raw["id"],
		"state":          raw["state"],
		"name":           raw["name"],
		"short_name":     raw["short_name"],
		"developer_name": raw["developer_name"],
		"updated_at":     runTS,
	}
}

// Stage maps a football stage record.
func Stage(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":                    raw["id"],
		"sport_id":              raw["sport_id"],
		"league_id":             sc.Ensure("leagues", raw["league_id"]),
		"season_id":             sc.Ensure("seasons", raw["season_id"]),
		"type_id":               sc.Ensure("core_types", raw["type_id"]),
		"name":                  raw["name"],
		"sort_order":            ToInt(raw["sort_order"]),
		"finished":              BoolOr(raw["finished"], false),
		"is_current":            BoolOr(raw["is_current"], false),
		"starting_at":           ToTimestamp(raw["starting_at"]),
		"ending_at":             ToTimestamp(raw["ending_at"]),
		"games_in_current_week": BoolOr(raw["games_in_current_week"], false),
		"tie_breaker_rule_id":   raw["tie_breaker_rule_id"],
		"updated_at":            runTS,
	}
}

// Round maps a football round record.
func Round(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":                    raw["id"],
		"sport_id":              raw["sport_id"],
		"league_id":             sc.Ensure("leagues", raw["league_id"]),
		"season_id":             sc.Ensure("seasons", raw["season_id"]),
		"stage_id":              sc.Ensure("stages", raw["stage_id"]),
		"name":                  raw["name"],
		"finished":              BoolOr(raw["finished"], false),
		"is_current":            BoolOr(raw["is_current"], false),
		"starting_at":           ToTimestamp(raw["starting_at"]),
		"ending_at":             ToTimestamp(raw["ending_at"]),
		"games_in_current_week": BoolOr(raw["games_in_current_week"], false),
		"updated_at":            runTS,
	}
}

// Team maps a football team record.
func Team(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":             raw["id"],
		"sport_id":       raw["sport_id"],
		"country_id":     sc.Ensure("countries", raw["country_id"]),
		"venue_id":       sc.Ensure("venues", raw["venue_id"]),
		"gender":         raw["gender"],
		"name":           raw["name"],
		"short_code":     raw["short_code"],
		"image_path":     raw["image_path"],
		"founded":        ToInt(raw["founded"]),
		"type":           raw["type"],
		"placeholder":    BoolOr(raw["placeholder"], false),
		"last_played_at": ToTimestamp(raw["last_played_at"]),
		"updated_at":     runTS,
	}
}

// Referee maps a football referee record during seeding. Unlike
// RefereeMaster this honors the seed context for foreign keys.
func Referee(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":            raw["id"],
		"sport_id":      raw["sport_id"],
		"country_id":    sc.Ensure("countries", raw["country_id"]),
		"city_id":       sc.Ensure("cities", raw["city_id"]),
		"common_name":   raw["common_name"],
		"firstname":     raw["firstname"],
		"lastname":      raw["lastname"],
		"name":          raw["name"],
		"display_name":  raw["display_name"],
		"image_path":    raw["image_path"],
		"height":        ToInt(raw["height"]),
		"weight":        ToInt(raw["weight"]),
		"date_of_birth": raw["date_of_birth"],
		"gender":        raw["gender"],
		"updated_at":    runTS,
	}
}

// Player maps a football player record.
func Player(raw map[string]any, sc *SeedContext, runTS string) Row {
	return Row{
		"id":                   raw["id"],
		"sport_id":             raw["sport_id"],
		"country_id":           sc.Ensure("countries", raw["country_id"]),
		"nationality_id":       sc.Ensure("countries", raw["nationality_id"]),
		"city_id":              sc.Ensure("cities", raw["city_id"]),
		"position_id":          raw["position_id"],
		"detailed_position_id": raw["detailed_position_id"],
		"type_id":              sc.Ensure("core_types", raw["type_id"]),
		"common_name":          raw["common_name"],
		"firstname":            raw["firstname"],
		"lastname":             raw["lastname"],
		"name":                 raw["name"],
		"display_name":         raw["display_name"],
		"image_path":           raw["image_path"],
		"height":               ToInt(raw["height"]),
		"weight":               ToInt(raw["weight"]),
		"date_of_birth":        raw["date_of_birth"],
		"gender":               raw["gender"],
		"updated_at":           runTS,
	}
}
