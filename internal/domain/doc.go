// Package domain models hourly weather-station export data and the
// analysis products derived from it.
//
// # Data Source
//
// Exports follow the Brazilian INMET automatic-station convention: one
// delimited text file per station, Latin-1 (ISO 8859-1) encoded, fields
// separated by ";", decimal commas, and free-form Portuguese column names
// such as "TEMPERATURA DO AR - BULBO SECO, HORARIA (°C)". The adapter layer
// decodes the bytes; this package owns header normalization, value parsing,
// the ordered observation store, and every derived table.
//
// # Column Conventions
//
// Header names:
//
//	Raw headers are folded to lowercase ASCII identifiers by
//	[NormalizeHeader]: diacritics stripped, every run of punctuation or
//	whitespace collapsed to a single underscore. "PRECIPITAÇÃO TOTAL,
//	HORÁRIO (mm)" → "precipitacao_total_horario_mm". The [Catalog] maps
//	these normalized forms onto canonical variable ids ("temperatura",
//	"precipitacao", ...); unrecognized columns survive under their
//	normalized name so nothing is dropped on the floor.
//
// Timestamps:
//
//	Two text fields carry the instant: "Data" (YYYY/MM/DD) and "Hora UTC",
//	whose first four characters encode HHMM ("0300 UTC" → 03:00). The pair
//	is parsed as a composite; rows whose composite cannot be parsed keep a
//	null timestamp instead of aborting the run. All instants are UTC.
//
// Values:
//
//	Numbers use decimal commas and occasionally embedded spaces
//	("1 013,2" → 1013.2). An empty or unparseable field is null, never
//	zero: zero is a legitimate reading (0.0 mm of rain) and must stay
//	distinct from "sensor did not report".
//
// # Wave Detection
//
// Heat and cold waves are sustained exceedance runs over a daily mean
// series: at least MinRun consecutive days strictly beyond a percentile
// threshold computed from the whole series. A null day always breaks a run.
// See [DetectWaves].
package domain
