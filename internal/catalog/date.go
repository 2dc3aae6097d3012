package catalog

import (
	"fmt"
	"time"
)

// thaiMonths are the full Thai month names, January first.
var thaiMonths = [12]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// buddhistEraOffset converts a Gregorian year to the Thai Buddhist era.
const buddhistEraOffset = 543

// thaiZone is Indochina Time. Thailand observes no daylight saving.
var thaiZone = time.FixedZone("ICT", 7*60*60)

// FormatThaiDate renders t in the Thai long-date form used for item display
// dates, e.g. "19 ตุลาคม 2569". The date is taken in Thai local time.
func FormatThaiDate(t time.Time) string {
	t = t.In(thaiZone)
	return fmt.Sprintf("%d %s %d", t.Day(), thaiMonths[t.Month()-1], t.Year()+buddhistEraOffset)
}
