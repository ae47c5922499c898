package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/report"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

var errHelp = errors.New("help provided")

type (
	studentImporter interface {
		AddStudents(ctx context.Context, students ...roster.Student) error
	}

	commandLine struct {
		conf     *core.Config
		db       *sql.DB
		out      io.Writer
		students studentImporter
		roster   roster.Service
		reporter *report.Reporter

		nowFunc func() time.Time // mockable
	}
)

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                        - run goose migrations (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  token -role ROLE [-class CLASS] -subject ID [-name NAME] [-ttl DURATION] - print a signed API token")
	fmt.Fprintln(cli.out, "  importstudents -file FILE.csv                                 - add or update students (id,name,father_name,class,phone)")
	fmt.Fprintln(cli.out, "  report [-month M] [-year Y] [-class CLASS]                    - email the low attendance report (default: last month)")
	fmt.Fprintln(cli.out, "  clearcache [-class CLASS]                                     - drop cached student counts")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenRole := tokenCmd.String("role", "", "teacher or principal")
	tokenClass := tokenCmd.String("class", "", "The teacher's class.")
	tokenSubject := tokenCmd.String("subject", "", "The token owner's id.")
	tokenName := tokenCmd.String("name", "", "The token owner's name.")
	tokenTTL := tokenCmd.Duration("ttl", 0, "Token lifetime (default: server.jwtExpirationDelta).")

	importCmd := flag.NewFlagSet("importstudents", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "CSV file with a header row.")

	prevMonth, prevYear := report.PreviousMonth(cli.nowFunc(), cli.conf.Location())
	reportCmd := flag.NewFlagSet("report", flag.ContinueOnError)
	reportMonth := reportCmd.Int("month", int(prevMonth), "Calendar month (1-12).")
	reportYear := reportCmd.Int("year", prevYear, "Calendar year.")
	reportClass := reportCmd.String("class", "", "Limit the report to one class.")

	clearCacheCmd := flag.NewFlagSet("clearcache", flag.ContinueOnError)
	clearCacheClass := clearCacheCmd.String("class", "", "Only drop this class's count.")

	for _, fs := range []*flag.FlagSet{tokenCmd, importCmd, reportCmd, clearCacheCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenRole == "" || *tokenSubject == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenSubject, *tokenName, *tokenRole, *tokenClass, *tokenTTL)
	case "importstudents":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(ctx, *importFile)
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.report(ctx, time.Month(*reportMonth), *reportYear, *reportClass)
	case "clearcache":
		if err := clearCacheCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.clearCache(ctx, *clearCacheClass)
	default:
		cli.printUsage()
		return errHelp
	}
}
