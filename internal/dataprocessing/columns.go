package dataprocessing

import (
	"fmt"
)

// SlotCount is the number of indexed material/parameter slots per log row
const SlotCount = 24

// Columns names the log fields read by the EventNormalizer. The six
// timestamp fields of each end are year, month, day, hour, minute, second.
type Columns struct {
	BatchID         string    `yaml:"batch_id"`
	Equipment       string    `yaml:"equipment"`
	StepName        string    `yaml:"step_name"`
	StepNumber      string    `yaml:"step_number"`
	Product         string    `yaml:"product"`
	ExpectedSeconds string    `yaml:"expected_seconds"`
	ActualSeconds   string    `yaml:"actual_seconds"`
	Start           [6]string `yaml:"start"`
	End             [6]string `yaml:"end"`
}

// DefaultColumns returns the field names written by the plant export
func DefaultColumns() Columns {
	return Columns{
		BatchID:         "BATCH_ID",
		Equipment:       "EQUIPMENT",
		StepName:        "STEP_NAME",
		StepNumber:      "STEP_NO",
		Product:         "PRODUCT",
		ExpectedSeconds: "SW_DUR",
		ActualSeconds:   "IW_DUR",
		Start:           [6]string{"START_Y", "START_M", "START_D", "START_H", "START_MI", "START_S"},
		End:             [6]string{"END_Y", "END_M", "END_D", "END_H", "END_MI", "END_S"},
	}
}

// SlotColumns are the field names of one indexed slot
type SlotColumns struct {
	Index    int
	Name     string
	Actual   string
	Expected string
	Unit     string
}

// DFMCode is the slot identifier carried by parameters
func (s SlotColumns) DFMCode() string {
	return fmt.Sprintf("DFM%d", s.Index)
}

// slotColumns lists NAME_DFMi, IW_DFMi, SW_DFMi and DIM_DFMi for i = 1..SlotCount
var slotColumns = func() []SlotColumns {
	slots := make([]SlotColumns, SlotCount)
	for i := range slots {
		n := i + 1
		slots[i] = SlotColumns{
			Index:    n,
			Name:     fmt.Sprintf("NAME_DFM%d", n),
			Actual:   fmt.Sprintf("IW_DFM%d", n),
			Expected: fmt.Sprintf("SW_DFM%d", n),
			Unit:     fmt.Sprintf("DIM_DFM%d", n),
		}
	}
	return slots
}()

// MaterialUnits are mass and volume units; a slot reported in one of them is
// a consumed material. Keys are normalized unit text.
var MaterialUnits = map[string]bool{
	"kg":  true,
	"g":   true,
	"mg":  true,
	"t":   true,
	"lb":  true,
	"l":   true,
	"ml":  true,
	"hl":  true,
	"m3":  true,
	"m³":  true,
	"gal": true,
}

// ParameterUnits are physical units; a slot reported in one of them is a
// process parameter. Keys are normalized unit text.
var ParameterUnits = map[string]bool{
	"°c":   true,
	"ºc":   true,
	"c":    true,
	"°f":   true,
	"bar":  true,
	"mbar": true,
	"psi":  true,
	"pa":   true,
	"kpa":  true,
	"mpa":  true,
	"rpm":  true,
	"%":    true,
	"ph":   true,
	"hz":   true,
	"a":    true,
	"v":    true,
	"kw":   true,
	"min":  true,
	"s":    true,
	"h":    true,
	"l/h":  true,
	"m3/h": true,
	"ntu":  true,
	"brix": true,
}
