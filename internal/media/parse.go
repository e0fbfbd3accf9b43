package media

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Filename helpers for episode files named "<show> SxxEyy - <title>.<ext>".
//
// Everything here works on names only. Nothing touches the disk.
var (
	// videoRe matches video file extensions used to include media files.
	videoRe = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|wmv|flv|webm|mpeg|mpg|m4v|3gp|vob|ts|mts|m2ts|rmvb|divx)$`)

	// subtitleRe matches subtitle file extensions (case‑insensitive).
	subtitleRe = regexp.MustCompile(`(?i)\.(srt|sub|idx|ass|ssa|smi|vtt|sbv|sami|usf|stl|dks|pjs|jss|psb|rt|scc|cap|sup|dfxp|ttml)$`)

	// langPattern matches trailing language codes before subtitle extension: .en, .eng, .en-US.
	langPattern = regexp.MustCompile(`(\.[a-zA-Z]{2,3}(?:[-_][a-zA-Z]{2,4})?)$`)

	// episodeCodeRe matches the episode counter: S01E02, S01E003, S100E01.
	episodeCodeRe = regexp.MustCompile(`(S\d{2,3})E(\d{2,3})`)
)

// IsVideo reports whether filename has a recognized video extension.
func IsVideo(filename string) bool {
	return videoRe.MatchString(filename)
}

// IsSubtitle reports whether filename has a recognized subtitle extension.
func IsSubtitle(filename string) bool {
	return subtitleRe.MatchString(filename)
}

// extractSubtitleSuffix extracts the language code and extension from subtitle files.
// For example: "movie.en.srt" returns ".en.srt", "movie.srt" returns ".srt"
func extractSubtitleSuffix(filename string) string {
	subtitleMatch := subtitleRe.FindStringIndex(filename)
	if len(subtitleMatch) == 0 {
		return ""
	}
	beforeExt := filename[:subtitleMatch[0]]
	return langPattern.FindString(beforeExt) + filename[subtitleMatch[0]:]
}

// ExtractExtension extracts the file extension, keeping a subtitle language
// code when present.
func ExtractExtension(filename string) string {
	if IsSubtitle(filename) {
		return extractSubtitleSuffix(filename)
	}
	if dotIndex := strings.LastIndex(filename, "."); dotIndex != -1 {
		return filename[dotIndex:]
	}
	return ""
}

// EpisodeCode returns the first SxxEyy code in filename.
func EpisodeCode(filename string) (string, bool) {
	code := episodeCodeRe.FindString(filename)
	return code, code != ""
}

// ParseEpisodeCode extracts the season and episode numbers of the first code.
func ParseEpisodeCode(filename string) (season, episode int, ok bool) {
	m := episodeCodeRe.FindStringSubmatch(filename)
	if len(m) < 3 {
		return 0, 0, false
	}
	season, err1 := strconv.Atoi(m[1][1:])
	episode, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return season, episode, true
}

// CurrentTitle returns the title following the episode code, without the
// separating "- " and without the extension.
func CurrentTitle(filename string) (string, bool) {
	loc := episodeCodeRe.FindStringIndex(filename)
	if loc == nil {
		return "", false
	}
	rest := filename[loc[1]:]
	if ext := ExtractExtension(rest); ext != "" {
		rest = rest[:len(rest)-len(ext)]
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "- ")
	return strings.TrimSpace(rest), true
}

// ApplyTitle rewrites filename as everything up to and including the episode
// code, followed by " - title" and the original extension. A blank title
// removes the old one. Names without a code are returned unchanged with false.
func ApplyTitle(filename, title string) (string, bool) {
	loc := episodeCodeRe.FindStringIndex(filename)
	if loc == nil {
		return filename, false
	}
	base := filename[:loc[1]]
	ext := ExtractExtension(filename[loc[1]:])

	clean, err := SanitizeTitle(title)
	if err != nil {
		return base + ext, true
	}
	return base + " - " + clean + ext, true
}

// ApplyTitles assigns titles in order to the names that carry an episode code.
// Names past the last title lose their old title; names without a code are
// left as they are.
func ApplyTitles(names, titles []string) []string {
	out := make([]string, len(names))
	next := 0
	for i, name := range names {
		if _, ok := EpisodeCode(name); !ok {
			out[i] = name
			continue
		}
		title := ""
		if next < len(titles) {
			title = titles[next]
			next++
		}
		out[i], _ = ApplyTitle(name, title)
	}
	return out
}

// ShiftEpisode adds delta to the episode number of the first code, keeping the
// zero padding width. E00 is allowed, results below zero are rejected.
func ShiftEpisode(filename string, delta int) (string, bool) {
	m := episodeCodeRe.FindStringSubmatchIndex(filename)
	if m == nil {
		return filename, false
	}
	digits := filename[m[4]:m[5]]
	n, err := strconv.Atoi(digits)
	if err != nil || n+delta < 0 {
		return filename, false
	}
	shifted := fmt.Sprintf("%0*d", len(digits), n+delta)
	return filename[:m[4]] + shifted + filename[m[5]:], true
}

// ShiftEpisodes previews ShiftEpisode over names. It fails when any coded name
// would end up with a negative episode number.
func ShiftEpisodes(names []string, delta int) ([]string, error) {
	lowest := -1
	for _, name := range names {
		if _, ep, ok := ParseEpisodeCode(name); ok && (lowest == -1 || ep < lowest) {
			lowest = ep
		}
	}
	if lowest == -1 {
		return nil, fmt.Errorf("no episodes found")
	}
	if lowest+delta < 0 {
		return nil, fmt.Errorf("cannot adjust episode numbers by %d: lowest episode is E%02d", delta, lowest)
	}

	out := make([]string, len(names))
	for i, name := range names {
		out[i], _ = ShiftEpisode(name, delta)
	}
	return out, nil
}

// SearchReplace previews replacing every literal find in each name's stem with
// replace. Extensions are kept, and a name whose stem would become empty or
// blank stays as it is.
func SearchReplace(names []string, find, replace string) ([]string, error) {
	if find == "" {
		return nil, fmt.Errorf("search text cannot be empty")
	}
	out := make([]string, len(names))
	for i, name := range names {
		ext := ExtractExtension(name)
		stem := strings.ReplaceAll(strings.TrimSuffix(name, ext), find, replace)
		if strings.TrimSpace(stem) == "" {
			out[i] = name
			continue
		}
		out[i] = stem + ext
	}
	return out, nil
}
