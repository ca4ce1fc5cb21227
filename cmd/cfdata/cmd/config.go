package cmd

import (
	"surveyops/lib/altset"
	"surveyops/lib/configutil"
	configsqlite "surveyops/lib/configutil/sqlite"
	"surveyops/lib/telemetry"
	"surveyops/services/exportspec"
	"surveyops/services/surveysubmit"
)

type UpdateResponsesConfig struct {
	// DataCenter is the API host's subdomain, ex. `az1`.
	DataCenter string `json:"data_center"`
	// TokenEnv names the environment variable holding the API token.
	TokenEnv        string   `json:"token_env"`
	ExcludedColumns []string `json:"excluded_columns"`
	// Report writes the processing report when true.
	Report    bool   `json:"report"`
	ReportDir string `json:"report_dir"`
	DumpDir   string `json:"dump_dir"`
}

type SubmitSurveysConfig struct {
	Browser      surveysubmit.RodOptions `json:"browser"`
	Column       string                  `json:"column"`
	NextButton   string                  `json:"next_button"`
	LoadDelayMs  int                     `json:"load_delay_ms"`
	ClickDelayMs int                     `json:"click_delay_ms"`
}

type Config struct {
	Debug bool `json:"debug"`
	// Delim separates cells in the bulk download files.
	Delim string `json:"delim"`
	// OutputDelim separates cells in written files.
	OutputDelim string `json:"output_delim"`
	// Timezone is the IANA zone used for report file names.
	Timezone  string           `json:"timezone"`
	Telemetry telemetry.Config `json:"telemetry"`
	// DB receives every result as a table when set, like --db.
	DB configsqlite.Struct `json:"db"`

	ExportSpec      exportspec.Inputs     `json:"export_spec"`
	AltSetColumns   altset.Columns        `json:"alt_set_columns"`
	UpdateResponses UpdateResponsesConfig `json:"update_responses"`
	SubmitSurveys   SubmitSurveysConfig   `json:"submit_surveys"`
}

var defaultConfig = Config{
	Delim:         "\t",
	OutputDelim:   ",",
	AltSetColumns: altset.DefaultColumns,
	UpdateResponses: UpdateResponsesConfig{
		TokenEnv: "SURVEYOPS_API_TOKEN",
		Report:   true,
	},
	SubmitSurveys: SubmitSurveysConfig{
		Column:       surveysubmit.ColumnSurveyURL,
		NextButton:   surveysubmit.DefaultNextButton,
		LoadDelayMs:  2000,
		ClickDelayMs: 1000,
	},
}

func loadConfig(path string) (Config, error) {
	return configutil.ReadOptional(path, defaultConfig)
}
