package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"io/ioutil"
	"log"
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/MuhammadFarhanWebDeveloper/attendence-app/apps/api/echo"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/cache"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/report"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
	emailsvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/email"
	logsvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/logger"
	smssvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/sms"
	inmemdb "github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/inmem"
)

// inmemStudents adapts the in-memory roster to the importer.
type inmemStudents struct {
	repo *inmemdb.StudentRepository
}

func (s inmemStudents) AddStudents(ctx context.Context, students ...roster.Student) error {
	s.repo.AddStudents(students...)
	return nil
}

type cliFixture struct {
	cli  *commandLine
	db   *inmemdb.DB
	out  *bytes.Buffer
	mail *emailsvc.ConsoleServiceMock
	svc  attendance.Service
}

func setup(t *testing.T) *cliFixture {
	t.Helper()
	conf := *core.Conf
	conf.Timezone = "UTC"

	f := &cliFixture{db: inmemdb.Open(), out: new(bytes.Buffer)}
	f.mail = emailsvc.NewConsoleServiceMock(&conf)
	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	f.svc = attendance.NewService(attendance.Options{
		Repo:           f.db.Attendance(),
		Classes:        f.db.Roster(),
		SMS:            smssvc.NewServiceMock(),
		Logger:         logger,
		CountryCode:    "92",
		AbsenceMessage: "absent today",
	})
	counts := cache.New(f.db.Cache(), conf.Cache.Namespace, time.Hour, logger)

	f.cli = &commandLine{
		conf:     &conf,
		out:      f.out,
		students: inmemStudents{repo: f.db.Roster()},
		roster:   roster.NewService(f.db.Roster(), counts),
		reporter: report.NewReporter(f.svc, f.mail, mail.Address{Address: "principal@school.test"}),
		nowFunc:  func() time.Time { return time.Date(2025, time.December, 2, 9, 0, 0, 0, time.UTC) },
	}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLI(t *testing.T, cli *commandLine, tt cliTest) error {
	t.Helper()
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
	return err
}

func Test_commandLine_usage(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "token: no args", args: []string{"token"}, wantErr: errHelp},
		{name: "token: unknown flag", args: []string{"token", "-lol"}, wantErr: errHelp},
		{name: "importstudents: no file", args: []string{"importstudents"}, wantErr: errHelp},
		{name: "report: bad month", args: []string{"report", "-month", "nov"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, f.cli, tt)
		})
	}
	assert.Contains(t, f.out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		if _, err := fs.Stat(fsys, dir+"/00001_students.sql"); err != nil {
			return err
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "holidays", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, f.cli, tt)
		})
	}
}

func Test_commandLine_token(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no subject", args: []string{"token", "-role", "principal"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"token", "-role", "janitor", "-subject", "1"}, wantErrStr: "invalid role"},
		{name: "teacher without class", args: []string{"token", "-role", "teacher", "-subject", "1"}, wantErrStr: "no class"},
		{
			name:  "teacher",
			args:  []string{"token", "-role", "teacher", "-class", " 7th   B ", "-subject", "t-1", "-name", "Ms Fatima"},
			extra: echoapi.Claims{Role: core.RoleTeacher, Class: "7th B", Name: "Ms Fatima"},
		},
		{
			name:  "principal",
			args:  []string{"token", "-role", "principal", "-subject", "p-1", "-ttl", "1h"},
			extra: echoapi.Claims{Role: core.RolePrincipal},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.out.Reset()
			if err := runCLI(t, f.cli, tt); err != nil || tt.extra == nil {
				return
			}
			want := tt.extra.(echoapi.Claims)

			claims := new(echoapi.Claims)
			_, err := jwt.ParseWithClaims(strings.TrimSpace(f.out.String()), claims, func(*jwt.Token) (interface{}, error) {
				return []byte(f.cli.conf.SecretKey), nil
			})
			require.NoError(t, err)
			assert.Equal(t, want.Role, claims.Role)
			assert.Equal(t, want.Class, claims.Class)
			assert.Equal(t, want.Name, claims.Name)
		})
	}
}

func Test_commandLine_importStudents(t *testing.T) {
	f := setup(t)
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, ioutil.WriteFile(path, []byte(content), 0o600))
		return path
	}

	valid := write("valid.csv", "id,name,father_name,class,phone\n"+
		"1, Muhammad  Ali,Aslam Khan,7th B,0300-1234567\n"+
		"2,Ayesha Siddiqui,Imran Siddiqui,7th B,12345\n"+
		"3,Bilal Ahmed,Ahmed Raza,8th A,\n")
	badHeader := write("header.csv", "id,name,class,father_name,phone\n")
	missingClass := write("class.csv", "id,name,father_name,class,phone\n4,Sana Tariq,Tariq Mehmood,,\n")
	duplicateID := write("dup.csv", "id,name,father_name,class,phone\n"+
		"4,Sana Tariq,Tariq Mehmood,9th C,\n"+
		"5,Hamza Yousaf,Yousaf Ali,9th C,\n"+
		"4,Sana Tariq,Tariq Mehmood,8th A,\n")

	// warm the cache so the import has something to invalidate
	count, err := f.cli.roster.Count(context.Background(), "7th B")
	require.NoError(t, err)
	require.Equal(t, 0, count.Count)

	tests := []cliTest{
		{name: "missing file", args: []string{"importstudents", "-file", filepath.Join(dir, "nope.csv")}, wantErrStr: "opening students file"},
		{name: "bad header", args: []string{"importstudents", "-file", badHeader}, wantErrStr: `column 3 must be "father_name"`},
		{name: "missing class", args: []string{"importstudents", "-file", missingClass}, wantErrStr: "line 2: id, name and class are required"},
		{name: "duplicate id", args: []string{"importstudents", "-file", duplicateID}, wantErrStr: `line 4: id "4" already on line 2`},
		{name: "valid", args: []string{"importstudents", "-file", valid}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, f.cli, tt)
		})
	}

	assert.Contains(t, f.out.String(), "3 student(s) imported")
	ali, err := f.cli.roster.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Muhammad Ali", ali.Name)
	assert.Equal(t, "+923001234567", ali.Phone)
	ayesha, err := f.cli.roster.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Empty(t, ayesha.Phone, "unusable numbers are dropped")

	count, err = f.cli.roster.Count(context.Background(), "7th B")
	require.NoError(t, err)
	assert.Equal(t, 2, count.Count)
}

func Test_commandLine_importStudents_classChange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "students.csv")

	require.NoError(t, ioutil.WriteFile(path, []byte("id,name,father_name,class,phone\n"+
		"1,Muhammad Ali,Aslam Khan,7th B,\n"+
		"2,Ayesha Siddiqui,Imran Siddiqui,7th B,\n"), 0o600))
	runCLI(t, f.cli, cliTest{args: []string{"importstudents", "-file", path}})

	count, err := f.cli.roster.Count(ctx, "7th B")
	require.NoError(t, err)
	require.Equal(t, 2, count.Count)

	// Ayesha moves to 8th A
	require.NoError(t, ioutil.WriteFile(path, []byte("id,name,father_name,class,phone\n"+
		"2,Ayesha Siddiqui,Imran Siddiqui,8th A,\n"), 0o600))
	runCLI(t, f.cli, cliTest{args: []string{"importstudents", "-file", path}})

	count, err = f.cli.roster.Count(ctx, "7th B")
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count)
	count, err = f.cli.roster.Count(ctx, "8th A")
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count)
}

func Test_commandLine_report(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, date := range []string{"2025-11-03", "2025-11-04", "2025-11-05", "2025-11-06"} {
		_, err := f.svc.Submit(ctx, attendance.NewSubmission{
			Class: "7th B",
			Date:  date,
			Students: []attendance.SubmittedStudent{
				{StudentID: "1", Name: "Muhammad Ali", Status: attendance.StatusAbsent},
				{StudentID: "2", Name: "Ayesha Siddiqui", Status: attendance.StatusPresent},
			},
		})
		require.NoError(t, err)
	}

	tests := []cliTest{
		{name: "invalid month", args: []string{"report", "-month", "13"}, wantErrStr: "month must be between 1 and 12"},
		{name: "last month", args: []string{"report"}},
		{name: "explicit month and class", args: []string{"report", "-month", "10", "-year", "2025", "-class", "7th B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, f.cli, tt)
		})
	}

	sent := f.mail.SentMessages()
	require.Len(t, sent, 2)
	subjects := []string{sent[0].Subject, sent[1].Subject}
	assert.ElementsMatch(t, []string{"Low attendance - November 2025", "Low attendance - October 2025"}, subjects)
	assert.Contains(t, f.out.String(), "low attendance report for November 2025 (All Classes) sent: 1 student(s)")
	assert.Contains(t, f.out.String(), "low attendance report for October 2025 (7th B) sent: 0 student(s)")
}

func Test_commandLine_clearCache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.db.Roster().AddStudents(roster.Student{ID: "1", Name: "Muhammad Ali", Class: "7th B"})

	_, err := f.cli.roster.Count(ctx, "7th B")
	require.NoError(t, err)
	f.db.Roster().AddStudents(roster.Student{ID: "2", Name: "Ayesha Siddiqui", Class: "7th B"})

	runCLI(t, f.cli, cliTest{args: []string{"clearcache", "-class", "8th A"}})
	count, err := f.cli.roster.Count(ctx, "7th B")
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count)

	runCLI(t, f.cli, cliTest{args: []string{"clearcache"}})
	count, err = f.cli.roster.Count(ctx, "7th B")
	require.NoError(t, err)
	assert.Equal(t, 2, count.Count)
	assert.Contains(t, f.out.String(), "student counts cleared")
}
