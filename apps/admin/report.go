package main

import (
	"context"
	"fmt"
	"time"
)

func (cli *commandLine) report(ctx context.Context, month time.Month, year int, class string) error {
	data, err := cli.reporter.SendLowAttendance(ctx, month, year, class)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "low attendance report for %s (%s) sent: %d student(s)\n", data.Month, data.Class, len(data.Students))
	return nil
}

func (cli *commandLine) clearCache(ctx context.Context, class string) error {
	var classes []string
	if class != "" {
		classes = append(classes, class)
	}
	if err := cli.roster.InvalidateCount(ctx, classes...); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "student counts cleared")
	return nil
}
