package logger_test

import (
	"testing"

	"github.com/minibundle/minibundle/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsgStringWithSource(t *testing.T) {
	source := logger.Source{
		PrettyPath: "src/entry.js",
		Contents:   "import { foo } from './foo'\nconsole.log(foo)\n",
	}
	msg := logger.Msg{
		Kind:     logger.Error,
		Text:     "Module src/foo.js does not export foo",
		Location: logger.LocationOrNil(&source, logger.Range{Loc: logger.Loc{Start: 9}, Len: 3}),
	}

	text := msg.String(logger.StderrOptions{IncludeSource: true}, logger.TerminalInfo{})
	assert.Equal(t, "src/entry.js:1:9: error: Module src/foo.js does not export foo\n"+
		"import { foo } from './foo'\n"+
		"         ~~~\n", text)
}

func TestMsgStringWithoutLocation(t *testing.T) {
	msg := logger.Msg{Kind: logger.Warning, Text: "nothing to do"}
	assert.Equal(t, "warning: nothing to do\n", msg.String(logger.StderrOptions{}, logger.TerminalInfo{}))
}

func TestLocationOnLaterLine(t *testing.T) {
	source := logger.Source{PrettyPath: "a.js", Contents: "let a\r\nlet b\nlet c"}
	loc := logger.LocationOrNil(&source, logger.Range{Loc: logger.Loc{Start: 11}, Len: 1})
	require.NotNil(t, loc)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 4, loc.Column)
	assert.Equal(t, "let b", loc.LineText)

	assert.Nil(t, logger.LocationOrNil(nil, logger.Range{}))
}

func TestDeferLogSortsMessages(t *testing.T) {
	log := logger.NewDeferLog()
	log.AddMsg(logger.Msg{Kind: logger.Warning, Text: "b", Location: &logger.MsgLocation{File: "b.js", Line: 1}})
	log.AddMsg(logger.Msg{Kind: logger.Error, Text: "a", Location: &logger.MsgLocation{File: "a.js", Line: 3}})
	log.AddMsg(logger.Msg{Kind: logger.Warning, Text: "global"})
	assert.True(t, log.HasErrors())

	msgs := log.Done()
	require.Len(t, msgs, 3)
	assert.Equal(t, "global", msgs[0].Text)
	assert.Equal(t, "a", msgs[1].Text)
	assert.Equal(t, "b", msgs[2].Text)
}
