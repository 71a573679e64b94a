// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

type Id int

const (
	CommandNotFoundId Id = iota + 1
	AmbiguousMatchId
	MissingTypeParserId
	TypeParseFailedId
	TooManyArgumentsId
	PreconditionFailedId
	MalformedInputId
	HandlerExceptionId
	CommandConfigurationId
	PipelineIncompleteId
	ModuleActivationFailedId
	ConfigLoadFailedId
	ConsoleStartFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	code     result.Code // dispatch result code this issue explains, if any
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

// Code returns the result code the issue explains, or "" for issues raised
// outside dispatch.
func (i *Issue) Code() result.Code {
	return i.code
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the message followed by a "See also" list when links exist.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	commandNotFoundIssue = &Issue{
		id:   CommandNotFoundId,
		code: result.CodeCommandNotFound,
		mdMsg: `
# Command not found!

No registered command has a name or alias matching what you typed.

## Things you can try:
- List the available commands:
~~~
$ maricmd list
~~~
- Check the spelling; matching is exact unless ` + "`comparison: \"ignore_case\"`" + ` is set
- Make sure the first word is separated from the arguments by the configured separator`,
	}

	ambiguousMatchIssue = &Issue{
		id:   AmbiguousMatchId,
		code: result.CodeAmbiguousMatch,
		mdMsg: `
# More than one command matched!

Several commands share this alias and the multi-match policy is ` + "`fail`" + `.

## Things you can try:
- Call the command by a name only it uses
- Set ` + "`multi_match: \"first\"`" + ` to pick the first command that accepts the argument count`,
	}

	missingTypeParserIssue = &Issue{
		id:   MissingTypeParserId,
		code: result.CodeMissingTypeParser,
		mdMsg: `
# No parser for a parameter type!

A parameter of this command has a type the parser registry cannot handle.

## Things you can try:
- Register a parser for the type before the engine is built
- Register a parser for an interface the type implements (an inherited parser)
- Change the parameter to a built-in type such as string, int, bool or time.Duration`,
	}

	typeParseFailedIssue = &Issue{
		id:   TypeParseFailedId,
		code: result.CodeTypeParseFailed,
		mdMsg: `
# An argument has the wrong format!

One of the arguments could not be converted to the parameter's type.

## Things you can try:
- Check the command usage with ` + "`maricmd list`" + `
- Quote arguments that contain the separator when the shell tokenizer is active`,
	}

	tooManyArgumentsIssue = &Issue{
		id:   TooManyArgumentsId,
		code: result.CodeTooManyArguments,
		mdMsg: `
# Too many arguments!

More arguments were given than the command has parameters for.

## Things you can try:
- Remove the extra arguments
- Quote multi-word values when the shell tokenizer is active
- Set ` + "`ignore_extra_args: true`" + ` to drop surplus arguments silently,
  unless the command itself rejects extra arguments`,
	}

	preconditionFailedIssue = &Issue{
		id:   PreconditionFailedId,
		code: result.CodePreconditionFailed,
		mdMsg: `
# The command refused to run!

A precondition attached to the command or its module rejected the request.
The reason above comes from the precondition itself.`,
	}

	malformedInputIssue = &Issue{
		id:   MalformedInputId,
		code: result.CodeMalformedInput,
		mdMsg: `
# The arguments could not be split!

The shell tokenizer found an unbalanced quote or a trailing escape.

## Things you can try:
- Close every ' and " you open
- Escape literal quotes with a backslash`,
	}

	handlerExceptionIssue = &Issue{
		id:   HandlerExceptionId,
		code: result.CodeException,
		mdMsg: `
# The command crashed!

The handler returned an error or panicked. Nothing was retried.

## Things you can try:
- Run again with ` + "`MARICMD_LOG_LEVEL=debug`" + ` to see the stack trace
- Report the failure to the command's maintainer`,
	}

	commandConfigurationIssue = &Issue{
		id: CommandConfigurationId,
		mdMsg: `
# A command is misconfigured!

A command was rejected at registration or build time.

## Common issues:
- The handler signature is not one of the supported shapes
- A remainder or variadic parameter is not the last one
- An optional parameter has no default and a non-nullable type
- Two commands claim the same name and alias`,
	}

	pipelineIncompleteIssue = &Issue{
		id: PipelineIncompleteId,
		mdMsg: `
# The dispatch pipeline is incomplete!

The last component of the pipeline tried to call the next one.
Every pipeline has to end with a terminal component such as the execution stage.`,
	}

	moduleActivationFailedIssue = &Issue{
		id: ModuleActivationFailedId,
		mdMsg: `
# A module could not be created!

The module constructor failed or asked for a service the container does not provide.

## Things you can try:
- Register the missing service as a singleton or a per-request factory
- Check the constructor's error message above`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file is invalid or an environment override has a bad value.

## Things you can try:
- Print the effective configuration:
~~~
$ maricmd config show
~~~
- Check ` + "`MARICMD_*`" + ` variables in your environment
- Delete the file to fall back to the defaults`,
	}

	consoleStartFailedIssue = &Issue{
		id: ConsoleStartFailedId,
		mdMsg: `
# The SSH console failed to start!

The listener could not be opened on the configured address.

## Things you can try:
- Pick another port with ` + "`--port`" + ` or ` + "`ssh: port:`" + ` in the config file
- Check whether another process already listens on it`,
		extLinks: []HttpLink{"https://github.com/charmbracelet/wish"},
	}

	issues = map[Id]*Issue{
		commandNotFoundIssue.Id():        commandNotFoundIssue,
		ambiguousMatchIssue.Id():         ambiguousMatchIssue,
		missingTypeParserIssue.Id():      missingTypeParserIssue,
		typeParseFailedIssue.Id():        typeParseFailedIssue,
		tooManyArgumentsIssue.Id():       tooManyArgumentsIssue,
		preconditionFailedIssue.Id():     preconditionFailedIssue,
		malformedInputIssue.Id():         malformedInputIssue,
		handlerExceptionIssue.Id():       handlerExceptionIssue,
		commandConfigurationIssue.Id():   commandConfigurationIssue,
		pipelineIncompleteIssue.Id():     pipelineIncompleteIssue,
		moduleActivationFailedIssue.Id(): moduleActivationFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		consoleStartFailedIssue.Id():     consoleStartFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForCode returns the issue explaining a failed dispatch result code.
func ForCode(code result.Code) (*Issue, bool) {
	for _, i := range issues {
		if i.code != "" && i.code == code {
			return i, true
		}
	}
	return nil, false
}
