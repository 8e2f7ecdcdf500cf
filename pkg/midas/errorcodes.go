// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"fmt"
	"strconv"
	"strings"
)

// Controller error codes reported by the last error query
const (
	ErrorCodeNone            = 0
	ErrorCodeHeater1Low      = 10
	ErrorCodeHeater1High     = 20
	ErrorCodeHeater1Ground   = 30
	ErrorCodeHeater2Low      = 40
	ErrorCodeHeater2High     = 50
	ErrorCodeHeater2Ground   = 60
	ErrorCodeI2CRead         = 70
	unrecognizedErrorMessage = "Unrecognized error code"
)

var errorCodeText = map[int]string{
	ErrorCodeNone:          "No error reported",
	ErrorCodeHeater1Low:    "Temperature heater 1 less than 1",
	ErrorCodeHeater1High:   "Temperature heater 1 higher than upper limit",
	ErrorCodeHeater1Ground: "Temperature heater 1 ground loop error",
	ErrorCodeHeater2Low:    "Temperature heater 2 less than 1",
	ErrorCodeHeater2High:   "Temperature heater 2 higher than upper limit",
	ErrorCodeHeater2Ground: "Temperature heater 2 ground loop error",
	ErrorCodeI2CRead:       "I2C read error",
}

// DescribeErrorCode maps a raw error code reply to a readable description.
// Codes outside the table are described as unrecognized rather than failing.
func DescribeErrorCode(raw string) string {
	raw = strings.TrimSpace(raw)
	code, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Sprintf("%q - %s", raw, unrecognizedErrorMessage)
	}
	if text, ok := errorCodeText[code]; ok {
		return fmt.Sprintf("%d - %s", code, text)
	}
	return fmt.Sprintf("%d - %s", code, unrecognizedErrorMessage)
}

// KnownErrorCode reports whether code appears in the description table.
func KnownErrorCode(code int) bool {
	_, ok := errorCodeText[code]
	return ok
}
