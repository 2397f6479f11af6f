package shell

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/util/sets"
)

// parsePackageList reads `pm list packages [-f]` output.
func parsePackageList(out string) []string {
	var pkgs []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		rest, ok := strings.CutPrefix(line, "package:")
		if !ok {
			continue
		}
		if i := strings.LastIndex(rest, "="); i >= 0 {
			rest = rest[i+1:]
		}
		if rest = strings.TrimSpace(rest); rest != "" {
			pkgs = append(pkgs, rest)
		}
	}
	return pkgs
}

var playbackStateRe = regexp.MustCompile(`state=PlaybackState \{state=(-?\d+)`)

// parseMediaSessions reads `dumpsys media_session` and returns active sessions
// in listing order (most recently active first).
func parseMediaSessions(out string) []host.Session {
	type record struct {
		session host.Session
		active  bool
	}
	var records []*record
	var cur *record

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "package="):
			cur = &record{session: host.Session{Package: strings.TrimPrefix(line, "package=")}}
			records = append(records, cur)
		case cur == nil:
			continue
		case strings.HasPrefix(line, "active="):
			cur.active = strings.TrimPrefix(line, "active=") == "true"
		default:
			if m := playbackStateRe.FindStringSubmatch(line); m != nil {
				n, _ := strconv.Atoi(m[1])
				cur.session.State = host.PlaybackState(n)
			}
		}
	}

	var sessions []host.Session
	for _, r := range records {
		if r.active {
			sessions = append(sessions, r.session)
		}
	}
	return sessions
}

var (
	wakefulnessRe  = regexp.MustCompile(`mWakefulness=(\w+)`)
	displayPowerRe = regexp.MustCompile(`Display Power: state=(\w+)`)
)

// parseScreenOn reads `dumpsys power`.
func parseScreenOn(out string) (on bool, ok bool) {
	if m := wakefulnessRe.FindStringSubmatch(out); m != nil {
		switch m[1] {
		case "Awake", "Dreaming":
			return true, true
		case "Asleep", "Dozing":
			return false, true
		}
	}
	if m := displayPowerRe.FindStringSubmatch(out); m != nil {
		return m[1] == "ON", true
	}
	return false, false
}

var resumedActivityRe = regexp.MustCompile(`ResumedActivity[:=]\s*ActivityRecord\{\S+ u\d+ ([^/\s]+)/`)

// parseForeground reads `dumpsys activity activities`.
func parseForeground(out string) string {
	if m := resumedActivityRe.FindStringSubmatch(out); m != nil {
		return m[1]
	}
	return ""
}

// parseDisabledComponents reads the disabledComponents blocks of
// `dumpsys package <pkg>`.
func parseDisabledComponents(out string) sets.Set[string] {
	disabled := sets.New[string]()
	inBlock := false
	blockIndent := 0

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		if line == "disabledComponents:" {
			inBlock = true
			blockIndent = indent
			continue
		}
		if !inBlock {
			continue
		}
		if line == "" || indent <= blockIndent || strings.HasSuffix(line, ":") {
			inBlock = false
			continue
		}
		disabled.Add(line)
	}
	return disabled
}

// parseSetting reads `settings get` output; "null" means unset.
func parseSetting(out string) (string, bool) {
	v := strings.TrimSpace(out)
	if v == "null" {
		return "", false
	}
	return v, true
}
