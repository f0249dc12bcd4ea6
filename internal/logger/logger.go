package logger

// Diagnostics are rendered to look like clang's error format. Each message
// that has a location includes the contents of the line with the problem and
// a marker underneath the offending range.

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type LogLevel int8

const (
	LevelNone LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSilent
)

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

func (kind MsgKind) String() string {
	switch kind {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		panic("Internal error")
	}
}

type Msg struct {
	Kind     MsgKind
	Text     string
	Location *MsgLocation
}

type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Loc struct {
	// This is the 0-based index of this location from the start of the file, in bytes
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

type Source struct {
	Index uint32

	// The absolute path used to read this file. External modules never get a
	// source so this is always a real (or mocked) file system path.
	KeyPath string

	// This is used for error messages. It's relative to the current working
	// directory when possible and always uses forward slashes.
	PrettyPath string

	// An identifier derived from the file name that is mixed in to generated
	// names. For "src/util.js" this is "util", so an anonymous default export
	// becomes "util_default".
	IdentifierName string

	Contents string
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start:r.End()]
}

// Messages are sorted by location so the output doesn't depend on the order
// that goroutines happened to report them in
func msgLess(a Msg, b Msg) bool {
	la, lb := a.Location, b.Location

	// Messages without a location come first
	if (la == nil) != (lb == nil) {
		return la == nil
	}

	if la != nil {
		if la.File != lb.File {
			return la.File < lb.File
		}
		if la.Line != lb.Line {
			return la.Line < lb.Line
		}
		if la.Column != lb.Column {
			return la.Column < lb.Column
		}
		if la.Length != lb.Length {
			return la.Length < lb.Length
		}
	}

	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Text < b.Text
}

// The state shared by both kinds of log. Callers hold the mutex.
type msgList struct {
	mutex    sync.Mutex
	msgs     []Msg
	errors   int
	warnings int
}

func (l *msgList) add(msg Msg) {
	l.msgs = append(l.msgs, msg)
	switch msg.Kind {
	case Error:
		l.errors++
	case Warning:
		l.warnings++
	}
}

func (l *msgList) sorted() []Msg {
	sort.SliceStable(l.msgs, func(i int, j int) bool {
		return msgLess(l.msgs[i], l.msgs[j])
	})
	return l.msgs
}

func plural(prefix string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, prefix)
	}
	return fmt.Sprintf("%d %ss", count, prefix)
}

func errorAndWarningSummary(errors int, warnings int) string {
	switch {
	case errors == 0:
		return plural("warning", warnings)
	case warnings == 0:
		return plural("error", errors)
	default:
		return fmt.Sprintf("%s and %s", plural("warning", warnings), plural("error", errors))
	}
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type StderrOptions struct {
	IncludeSource bool
	ErrorLimit    int
	Color         StderrColor
	LogLevel      LogLevel
}

func NewStderrLog(options StderrOptions) Log {
	list := &msgList{}
	terminalInfo := GetTerminalInfo(os.Stderr)
	errorLimitWasHit := false

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	return Log{
		AddMsg: func(msg Msg) {
			list.mutex.Lock()
			defer list.mutex.Unlock()
			list.add(msg)

			// Be silent if we're past the limit so we don't flood the terminal
			if errorLimitWasHit {
				return
			}

			threshold := LevelWarning
			if msg.Kind == Error {
				threshold = LevelError
			}
			if options.LogLevel <= threshold {
				os.Stderr.WriteString(msg.String(options, terminalInfo))
			}

			if options.ErrorLimit != 0 && list.errors >= options.ErrorLimit {
				errorLimitWasHit = true
				if options.LogLevel <= LevelError {
					fmt.Fprintf(os.Stderr, "%s reached (disable error limit with --error-limit=0)\n",
						errorAndWarningSummary(list.errors, list.warnings))
				}
			}
		},
		HasErrors: func() bool {
			list.mutex.Lock()
			defer list.mutex.Unlock()
			return list.errors > 0
		},
		Done: func() []Msg {
			list.mutex.Lock()
			defer list.mutex.Unlock()

			if !errorLimitWasHit && options.LogLevel <= LevelInfo && (list.warnings != 0 || list.errors != 0) {
				fmt.Fprintf(os.Stderr, "%s\n", errorAndWarningSummary(list.errors, list.warnings))
			}
			return list.sorted()
		},
	}
}

func PrintErrorToStderr(osArgs []string, text string) {
	options := StderrOptions{IncludeSource: true}

	// Implement a mini argument parser so these options always work even if we
	// haven't yet gotten to the general-purpose argument parsing code
	for _, arg := range osArgs {
		switch arg {
		case "--color=false":
			options.Color = ColorNever
		case "--color=true":
			options.Color = ColorAlways
		case "--log-level=silent":
			options.LogLevel = LevelSilent
		}
	}

	log := NewStderrLog(options)
	log.AddMsg(Msg{Kind: Error, Text: text})
	log.Done()
}

// Collects messages without printing them
func NewDeferLog() Log {
	list := &msgList{}

	return Log{
		AddMsg: func(msg Msg) {
			list.mutex.Lock()
			defer list.mutex.Unlock()
			list.add(msg)
		},
		HasErrors: func() bool {
			list.mutex.Lock()
			defer list.mutex.Unlock()
			return list.errors > 0
		},
		Done: func() []Msg {
			list.mutex.Lock()
			defer list.mutex.Unlock()
			return list.sorted()
		},
	}
}

const colorReset = "\033[0m"
const colorRed = "\033[31m"
const colorGreen = "\033[32m"
const colorMagenta = "\033[35m"
const colorBold = "\033[1m"
const colorResetBold = "\033[0;1m"

func (msg Msg) String(options StderrOptions, terminalInfo TerminalInfo) string {
	kindColor := colorRed
	if msg.Kind == Warning {
		kindColor = colorMagenta
	}
	color := func(code string) string {
		if terminalInfo.UseColorEscapes {
			return code
		}
		return ""
	}

	if msg.Location == nil {
		return fmt.Sprintf("%s%s%s: %s%s%s\n",
			color(colorBold), color(kindColor), msg.Kind,
			color(colorResetBold), msg.Text, color(colorReset))
	}

	if !options.IncludeSource {
		return fmt.Sprintf("%s%s: %s%s: %s%s%s\n",
			color(colorBold), msg.Location.File,
			color(kindColor), msg.Kind,
			color(colorResetBold), msg.Text, color(colorReset))
	}

	d := detailStruct(msg, terminalInfo)
	return fmt.Sprintf("%s%s:%d:%d: %s%s: %s%s\n%s%s%s%s%s%s\n%s%s%s%s\n",
		color(colorBold), d.Path, d.Line, d.Column,
		color(kindColor), msg.Kind,
		color(colorResetBold), msg.Text,
		color(colorReset), d.SourceBefore, color(colorGreen), d.SourceMarked, color(colorReset), d.SourceAfter,
		color(colorGreen), d.Indent, d.Marker, color(colorReset))
}

type MsgDetail struct {
	Path   string
	Line   int
	Column int

	// The first line of the location's line text, split around the marked range
	SourceBefore string
	SourceMarked string
	SourceAfter  string

	Indent string
	Marker string
}

func computeLineAndColumn(contents string, offset int) (lineCount int, columnCount int, lineStart int, lineEnd int) {
	var prevCodePoint rune
	if offset > len(contents) {
		offset = len(contents)
	}

	for i, codePoint := range contents[:offset] {
		switch codePoint {
		case '\n':
			lineStart = i + 1
			if prevCodePoint != '\r' {
				lineCount++
			}
		case '\r':
			lineStart = i + 1
			lineCount++
		case '\u2028', '\u2029':
			lineStart = i + 3 // These take three bytes to encode in UTF-8
			lineCount++
		}
		prevCodePoint = codePoint
	}

	lineEnd = len(contents)
	if i := strings.IndexAny(contents[offset:], "\r\n\u2028\u2029"); i != -1 {
		lineEnd = offset + i
	}

	columnCount = offset - lineStart
	return
}

func LocationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}

	lineCount, columnCount, lineStart, lineEnd := computeLineAndColumn(source.Contents, int(r.Loc.Start))

	return &MsgLocation{
		File:     source.PrettyPath,
		Line:     lineCount + 1, // 0-based to 1-based
		Column:   columnCount,
		Length:   int(r.Len),
		LineText: source.Contents[lineStart:lineEnd],
	}
}

func detailStruct(msg Msg, terminalInfo TerminalInfo) MsgDetail {
	loc := *msg.Location
	lineText := renderTabStops(loc.LineText, 2)

	// Clamp values in range
	if loc.Column < 0 {
		loc.Column = 0
	}
	if loc.Column > len(loc.LineText) {
		loc.Column = len(loc.LineText)
	}
	if loc.Length < 0 || loc.Length > len(loc.LineText)-loc.Column {
		loc.Length = len(loc.LineText) - loc.Column
	}

	markerStart := len(renderTabStops(loc.LineText[:loc.Column], 2))
	markerEnd := len(renderTabStops(loc.LineText[:loc.Column+loc.Length], 2))

	// Trim long lines so the marker stays visible
	width := terminalInfo.Width
	if width < 1 {
		width = 80
	}
	if len(lineText) > width {
		sliceStart := markerStart - width/5
		if sliceStart < 0 {
			sliceStart = 0
		}
		if sliceStart > len(lineText)-width {
			sliceStart = len(lineText) - width
		}
		lineText = lineText[sliceStart : sliceStart+width]
		markerStart -= sliceStart
		markerEnd -= sliceStart
		if markerEnd > len(lineText) {
			markerEnd = len(lineText)
		}
	}

	marker := "^"
	if markerEnd-markerStart > 1 {
		marker = strings.Repeat("~", markerEnd-markerStart)
	}

	return MsgDetail{
		Path:   loc.File,
		Line:   loc.Line,
		Column: loc.Column,

		SourceBefore: lineText[:markerStart],
		SourceMarked: lineText[markerStart:markerEnd],
		SourceAfter:  lineText[markerEnd:],

		Indent: strings.Repeat(" ", markerStart),
		Marker: marker,
	}
}

func renderTabStops(withTabs string, spacesPerTab int) string {
	if !strings.ContainsRune(withTabs, '\t') {
		return withTabs
	}

	sb := strings.Builder{}
	count := 0

	for _, c := range withTabs {
		if c == '\t' {
			spaces := spacesPerTab - count%spacesPerTab
			sb.WriteString(strings.Repeat(" ", spaces))
			count += spaces
		} else {
			sb.WriteRune(c)
			count++
		}
	}

	return sb.String()
}

func (log Log) AddError(source *Source, r Range, text string) {
	log.AddMsg(Msg{
		Kind:     Error,
		Text:     text,
		Location: LocationOrNil(source, r),
	})
}

func (log Log) AddWarning(source *Source, r Range, text string) {
	log.AddMsg(Msg{
		Kind:     Warning,
		Text:     text,
		Location: LocationOrNil(source, r),
	})
}
