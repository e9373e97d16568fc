package gst

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultInvoicePrefix is used when a shop has not configured its own prefix.
const DefaultInvoicePrefix = "INV-"

// stateCodes maps state and union territory names to GST state codes.
var stateCodes = map[string]string{
	"Jammu and Kashmir":                        "01",
	"Himachal Pradesh":                         "02",
	"Punjab":                                   "03",
	"Chandigarh":                               "04",
	"Uttarakhand":                              "05",
	"Haryana":                                  "06",
	"Delhi":                                    "07",
	"Rajasthan":                                "08",
	"Uttar Pradesh":                            "09",
	"Bihar":                                    "10",
	"Sikkim":                                   "11",
	"Arunachal Pradesh":                        "12",
	"Nagaland":                                 "13",
	"Manipur":                                  "14",
	"Mizoram":                                  "15",
	"Tripura":                                  "16",
	"Meghalaya":                                "17",
	"Assam":                                    "18",
	"West Bengal":                              "19",
	"Jharkhand":                                "20",
	"Odisha":                                   "21",
	"Chhattisgarh":                             "22",
	"Madhya Pradesh":                           "23",
	"Gujarat":                                  "24",
	"Dadra and Nagar Haveli and Daman and Diu": "26",
	"Maharashtra":                              "27",
	"Karnataka":                                "29",
	"Goa":                                      "30",
	"Lakshadweep":                              "31",
	"Kerala":                                   "32",
	"Tamil Nadu":                               "33",
	"Puducherry":                               "34",
	"Andaman and Nicobar Islands":              "35",
	"Telangana":                                "36",
	"Andhra Pradesh":                           "37",
	"Ladakh":                                   "38",
}

// State is a GST state entry.
type State struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// StateCode returns the GST state code for a state name, ignoring case and
// surrounding whitespace.
func StateCode(stateName string) (string, bool) {
	want := normalize(stateName)
	if want == "" {
		return "", false
	}
	for name, code := range stateCodes {
		if strings.ToLower(name) == want {
			return code, true
		}
	}
	return "", false
}

// States lists every known state ordered by code.
func States() []State {
	states := make([]State, 0, len(stateCodes))
	for name, code := range stateCodes {
		states = append(states, State{Name: name, Code: code})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Code < states[j].Code })
	return states
}

// FormatInvoiceNumber builds an invoice number such as "INV-0001".
func FormatInvoiceNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}
