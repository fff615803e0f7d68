package edl

import (
	"fmt"
	"strings"
	"unicode"
)

// Section identifies a block of an EDL export
type Section uint8

// Known sections. SectionUnknown covers content outside every known section.
const (
	SectionUnknown Section = iota
	SectionHeader
	SectionOnlineFiles
	SectionOfflineFiles
	SectionOnlineClips
	SectionPlugins
	SectionTracks
	SectionMarkers
)

var sectionNames = [...]string{
	SectionUnknown:      "unknown",
	SectionHeader:       "header",
	SectionOnlineFiles:  "online_files",
	SectionOfflineFiles: "offline_files",
	SectionOnlineClips:  "online_clips",
	SectionPlugins:      "plugins",
	SectionTracks:       "tracks",
	SectionMarkers:      "markers",
}

// banners are the section titles as printed in an export
var banners = map[Section]string{
	SectionOnlineFiles:  "O N L I N E  F I L E S  I N  S E S S I O N",
	SectionOfflineFiles: "O F F L I N E  F I L E S  I N  S E S S I O N",
	SectionOnlineClips:  "O N L I N E  C L I P S  I N  S E S S I O N",
	SectionPlugins:      "P L U G - I N S  L I S T I N G",
	SectionTracks:       "T R A C K  L I S T I N G",
	SectionMarkers:      "M A R K E R S  L I S T I N G",
}

// bannerIndex maps a banner with all whitespace removed to its section
var bannerIndex = func() map[string]Section {
	index := make(map[string]Section, len(banners))
	for section, title := range banners {
		index[compact(title)] = section
	}
	return index
}()

// String returns the section name
func (s Section) String() string {
	if int(s) >= len(sectionNames) {
		return sectionNames[SectionUnknown]
	}
	return sectionNames[s]
}

// Banner returns the title line that opens the section in an export
func (s Section) Banner() string {
	return banners[s]
}

// MarshalText implements encoding.TextMarshaler
func (s Section) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Section) UnmarshalText(text []byte) error {
	for i, name := range sectionNames {
		if name == string(text) {
			*s = Section(i)
			return nil
		}
	}
	return fmt.Errorf("unknown section name %q", text)
}

// matchBanner reports the known section opened by line, if any
func matchBanner(line Line) (Section, bool) {
	if !isBanner(line) {
		return SectionUnknown, false
	}
	section, ok := bannerIndex[compact(line.Text)]
	return section, ok
}

// isBanner reports whether line looks like a letter-spaced section title,
// known or not
func isBanner(line Line) bool {
	if strings.ContainsRune(line.Text, '\t') {
		return false
	}

	tokens := strings.Fields(line.Text)
	if len(tokens) < 4 {
		return false
	}

	for _, token := range tokens {
		runes := []rune(token)
		if len(runes) != 1 {
			return false
		}
		if r := runes[0]; !unicode.IsUpper(r) && !unicode.IsDigit(r) && r != '-' && r != '&' {
			return false
		}
	}
	return true
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
