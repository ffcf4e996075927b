// Package console implements the interactive SQL prompt: statements end
// with a semicolon, lines starting with a dot are meta commands.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/koustreak/brewery/internal/database"
	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/logger"
	"github.com/koustreak/brewery/internal/schema"
)

const (
	prompt         = "brewery> "
	continuePrompt = "    ...> "
)

// Console runs statements read from a stream against one database.
type Console struct {
	q       database.Querier
	sink    *database.Sink
	schema  *schema.Introspector
	out     io.Writer
	log     *logger.Logger
	prompts bool
}

// New returns a console writing results to out. Engine failures are read
// back from sink.
func New(q database.Querier, sink *database.Sink, out io.Writer) *Console {
	return &Console{
		q:      q,
		sink:   sink,
		schema: schema.NewIntrospector(q),
		out:    out,
		log:    logger.Global().Component("console"),
	}
}

// ShowPrompts turns the interactive prompts on or off.
func (c *Console) ShowPrompts(on bool) {
	c.prompts = on
}

// Run reads r until EOF, .quit or ctx is done.
func (c *Console) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending strings.Builder
	c.prompt(pending.Len() > 0)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if pending.Len() == 0 && strings.HasPrefix(trimmed, ".") {
			if quit := c.Meta(trimmed); quit {
				return nil
			}
			c.prompt(false)
			continue
		}

		if trimmed != "" || pending.Len() > 0 {
			pending.WriteString(line)
			pending.WriteByte('\n')
		}
		if strings.HasSuffix(trimmed, ";") {
			_ = c.Exec(pending.String())
			pending.Reset()
		}
		c.prompt(pending.Len() > 0)
	}
	if err := scanner.Err(); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "read input", err)
	}

	// A final statement without its semicolon still runs.
	if strings.TrimSpace(pending.String()) != "" {
		_ = c.Exec(pending.String())
	}
	return nil
}

func (c *Console) prompt(continuation bool) {
	if !c.prompts {
		return
	}
	if continuation {
		fmt.Fprint(c.out, continuePrompt)
		return
	}
	fmt.Fprint(c.out, prompt)
}

// Exec runs sql and prints every produced row, preceded by a header line
// whenever the column set changes. On failure the new sink lines are
// printed instead.
func (c *Console) Exec(sql string) error {
	mark := c.sink.Len()
	var header []string

	err := c.q.ExecuteFunc(database.Raw(sql), func(values, names []string) error {
		if !slices.Equal(header, names) {
			header = names
			fmt.Fprintln(c.out, strings.Join(names, "\t"))
		}
		fmt.Fprintln(c.out, strings.Join(values, "\t"))
		return nil
	})
	if err != nil {
		c.log.With().Err(err).Logger().Debug("statement failed")
		for _, line := range c.sink.Since(mark) {
			fmt.Fprintln(c.out, line)
		}
	}
	return err
}

// Meta runs one dot command and reports whether the console should stop.
func (c *Console) Meta(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case ".quit", ".exit":
		return true
	case ".help":
		fmt.Fprintln(c.out, helpText)
	case ".tables":
		tables, err := c.schema.ListTables("")
		if err != nil {
			c.fail(err)
			return false
		}
		for _, t := range tables {
			fmt.Fprintln(c.out, t)
		}
	case ".schema":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: .schema TABLE")
			return false
		}
		c.describe(args[0])
	case ".size":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: .size TABLE")
			return false
		}
		n, err := c.q.Size(args[0])
		if err != nil {
			c.fail(err)
			return false
		}
		fmt.Fprintln(c.out, n)
	case ".log":
		for _, l := range c.sink.Lines() {
			fmt.Fprintln(c.out, l)
		}
	case ".clear":
		c.sink.Clear()
	default:
		fmt.Fprintf(c.out, "unknown command %s, try .help\n", cmd)
	}
	return false
}

func (c *Console) describe(table string) {
	info, err := c.schema.InspectTable("", table)
	if err != nil {
		c.fail(err)
		return
	}
	for _, col := range info.Columns {
		line := col.Name + "\t" + col.DataType
		if col.IsPrimaryKey {
			line += "\tPRIMARY KEY"
		}
		if !col.IsNullable && !col.IsPrimaryKey {
			line += "\tNOT NULL"
		}
		if col.IsUnique {
			line += "\tUNIQUE"
		}
		if col.DefaultValue != nil {
			line += "\tDEFAULT " + *col.DefaultValue
		}
		fmt.Fprintln(c.out, line)
	}
}

func (c *Console) fail(err error) {
	fmt.Fprintln(c.out, "error:", err)
}

const helpText = `.tables          list tables
.schema TABLE    describe a table
.size TABLE      count the rows of a table
.log             print the log
.clear           clear the log
.quit            exit`
