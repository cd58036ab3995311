// Package ident generates the externally visible identifiers for patients,
// schedules and tokens.
package ident

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const patientSuffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PatientID returns "P" followed by the unix millisecond timestamp of now and
// five random uppercase alphanumerics.
func PatientID(now time.Time) string {
	var b strings.Builder
	b.WriteString("P")
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	max := big.NewInt(int64(len(patientSuffixAlphabet)))
	for i := 0; i < 5; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(int64(now.UnixNano() % int64(len(patientSuffixAlphabet))))
		}
		b.WriteByte(patientSuffixAlphabet[n.Int64()])
	}
	return b.String()
}

// ScheduleID returns a time-ordered schedule identifier.
func ScheduleID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "SCH-" + id.String()
}

// TokenPrefix returns the first three letters of name, uppercased. Names
// shorter than three characters are used whole. Surrounding whitespace is
// ignored.
func TokenPrefix(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 3 {
		runes = runes[:3]
	}
	for i, r := range runes {
		runes[i] = unicode.ToUpper(r)
	}
	return string(runes)
}

// TokenNumber composes the queue ticket number XXX-YYY-NNN.
func TokenNumber(hospital, department string, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", TokenPrefix(hospital), TokenPrefix(department), seq)
}
