package utils

import (
	"fmt"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// BytesToHuman converts a byte count into a base-1024 size string such as
// "1.5 KB". The value is rounded to decimals fractional digits and printed
// without trailing zeros. Negative decimals are treated as 0.
func BytesToHuman(bytes uint64, decimals int) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}

	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	// round first, then drop padding zeros
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(value, 'f', decimals, 64), 64)
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[unit]
}

// FormatBytes is BytesToHuman with two decimals
func FormatBytes(bytes uint64) string {
	return BytesToHuman(bytes, 2)
}

// ProgressFraction returns downloaded/total in [0, 1], or 0 when total is 0
func ProgressFraction(downloaded, total uint64) float64 {
	if total == 0 {
		return 0
	}
	f := float64(downloaded) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

// ProgressPercent renders the completion percentage. A zero total yields "0",
// anything else a two-decimal number.
func ProgressPercent(downloaded, total uint64) string {
	if total == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(downloaded)/float64(total)*100, 'f', 2, 64)
}

// FormatProgress produces "{downloaded} of {total} ({percent}%)"
func FormatProgress(downloaded, total uint64) string {
	return fmt.Sprintf("%s of %s (%s%%)", FormatBytes(downloaded), FormatBytes(total), ProgressPercent(downloaded, total))
}
