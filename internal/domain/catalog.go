package domain

import "slices"

// VariableID identifies a measured quantity after header normalization.
// Catalog variables use short canonical ids; columns the catalog does not
// recognize keep their full normalized header as an ad-hoc id.
type VariableID string

// Canonical variables recognized by the catalog.
const (
	VarTemperature   VariableID = "temperatura"
	VarPrecipitation VariableID = "precipitacao"
	VarHumidity      VariableID = "umidade"
	VarPressure      VariableID = "pressao"
	VarWindSpeed     VariableID = "vento_velocidade"
	VarWindGust      VariableID = "vento_rajada"
	VarWindDirection VariableID = "vento_direcao"
	VarRadiation     VariableID = "radiacao"
	VarDewPoint      VariableID = "temp_orvalho"
)

// Timestamp source columns, by normalized header.
const (
	ColumnDate = "data"
	ColumnHour = "hora_utc"
)

// HourAliases lists the normalized headers accepted for the hour code.
var HourAliases = []string{ColumnHour, "hora"}

// Catalog maps each canonical variable to the normalized source headers it
// is recognized under. Long forms are the INMET automatic-station export
// names after NormalizeHeader; short forms cover hand-trimmed exports.
var Catalog = map[VariableID][]string{
	VarTemperature:   {"temperatura_do_ar_bulbo_seco_horaria_c", "temperatura_do_ar"},
	VarPrecipitation: {"precipitacao_total_horario_mm", "precipitacao_total"},
	VarHumidity:      {"umidade_relativa_do_ar_horaria", "umidade_relativa"},
	VarPressure:      {"pressao_atmosferica_ao_nivel_da_estacao_horaria_mb", "pressao_atmosferica"},
	VarWindSpeed:     {"vento_velocidade_horaria_m_s"},
	VarWindGust:      {"vento_rajada_maxima_m_s"},
	VarWindDirection: {"vento_direcao_horaria_gr_gr", "vento_direcao_horaria_gr"},
	VarRadiation:     {"radiacao_global_kj_m", "radiacao_global"},
	VarDewPoint:      {"temperatura_do_ponto_de_orvalho_c"},
}

// aliasIndex inverts Catalog for lookups. Canonical ids resolve to
// themselves.
var aliasIndex = func() map[string]VariableID {
	idx := make(map[string]VariableID)
	for id, aliases := range Catalog {
		idx[string(id)] = id
		for _, a := range aliases {
			idx[a] = id
		}
	}
	return idx
}()

// CanonicalVariable resolves a normalized header to its catalog id. Unknown
// headers come back unchanged with ok false, so ad-hoc columns survive
// under their own name rather than being silently dropped.
func CanonicalVariable(header string) (VariableID, bool) {
	if id, ok := aliasIndex[header]; ok {
		return id, true
	}
	return VariableID(header), false
}

// ResolveVariable maps a user-supplied variable name to the id ingestion
// stores values under: the name is normalized like a header, catalog
// aliases collapse to their canonical id, and anything else keeps its
// normalized form as an ad-hoc id.
func ResolveVariable(name string) VariableID {
	id, _ := CanonicalVariable(NormalizeHeader(name))
	return id
}

// KnownVariables returns the canonical catalog ids, sorted.
func KnownVariables() []VariableID {
	out := make([]VariableID, 0, len(Catalog))
	for id := range Catalog {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ColumnMap is the resolved layout of an export header row: where the
// timestamp fields live and which variable each value column carries.
type ColumnMap struct {
	Date int
	Hour int
	Vars map[int]VariableID
}

// ResolveHeaders normalizes a raw header row and locates the date column,
// the hour-code column and every value column. Date and hour are mandatory;
// their absence is a MissingColumnError. When several columns resolve to
// the same variable the leftmost wins. Empty headers (trailing separators)
// are skipped.
func ResolveHeaders(raw []string) (ColumnMap, error) {
	cm := ColumnMap{Date: -1, Hour: -1, Vars: make(map[int]VariableID)}
	claimed := make(map[VariableID]bool)
	for i, h := range raw {
		name := NormalizeHeader(h)
		switch {
		case name == "":
			continue
		case name == ColumnDate && cm.Date < 0:
			cm.Date = i
			continue
		case slices.Contains(HourAliases, name) && cm.Hour < 0:
			cm.Hour = i
			continue
		}
		id, _ := CanonicalVariable(name)
		if claimed[id] {
			continue
		}
		claimed[id] = true
		cm.Vars[i] = id
	}
	if cm.Date < 0 {
		return ColumnMap{}, &MissingColumnError{Column: ColumnDate}
	}
	if cm.Hour < 0 {
		return ColumnMap{}, &MissingColumnError{Column: ColumnHour}
	}
	return cm, nil
}

// Require verifies that every requested variable resolved to a column.
func (cm ColumnMap) Require(vars ...VariableID) error {
	for _, want := range vars {
		found := false
		for _, id := range cm.Vars {
			if id == want {
				found = true
				break
			}
		}
		if !found {
			return &MissingColumnError{Column: string(want)}
		}
	}
	return nil
}
