package scraper

import (
	"fmt"
	"reflect"

	"stdmark-backend/lib/configutil"
)

// Selectors is the declarative table mapping every structural
// dependency on the portal's markup to a css query. It ships as an
// external json5 file so a layout change upstream is a config edit,
// not a code change.
type Selectors struct {
	RequestVerificationToken string `json:"request_verification_token"`
	CollegeSelectDropdown    string `json:"college_select_dropdown"`
	CollegeOption            string `json:"college_option"`
	ValidationErrorSummary   string `json:"validation_error_summary"`
	StudentInfoCard          string `json:"student_info_card"`
	InfoKeySpan              string `json:"info_key_span"`
	InfoValueSpan            string `json:"info_value_span"`
	ResultPanels             string `json:"result_panels"`
	PanelHeading             string `json:"panel_heading"`
	ResultsTable             string `json:"results_table"`
	TableBody                string `json:"table_body"`
	TableRow                 string `json:"table_row"`
	TableCell                string `json:"table_cell"`
}

// LoadSelectors reads the selector table and refuses to continue on
// any missing entry. The scraper cannot operate with a partial
// table, this failure is meant to stop startup.
func LoadSelectors(path string) (Selectors, error) {
	selectors, err := configutil.ReadConfig[Selectors](path)
	if err != nil {
		return Selectors{}, fmt.Errorf("selector table %q: %w", path, err)
	}

	v := reflect.ValueOf(selectors)
	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).String() == "" {
			return Selectors{}, fmt.Errorf(
				"selector table %q: missing entry %q",
				path, v.Type().Field(i).Tag.Get("json"),
			)
		}
	}

	return selectors, nil
}
