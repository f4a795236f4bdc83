package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/zapponejosh/saju-api/internal/bootstrap"
	"github.com/zapponejosh/saju-api/internal/correction"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/tables/tablestest"
)

// execute runs the command tree over the fixture tables and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	tbls := tablestest.New(t)
	eng, err := engine.New(tbls, correction.Default(), engine.Options{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	var out bytes.Buffer
	a := &app{
		out: &out,
		load: func(context.Context, bool) (*bootstrap.Runtime, error) {
			return &bootstrap.Runtime{Engine: eng, Tables: tbls}, nil
		},
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err = cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "analyze",
			args: []string{"analyze", "1990-02-04 11:14", "--gender", "male", "--location", "Reference"},
			want: []string{"원국", "庚午 戊寅", "대운", "순행"},
		},
		{
			name: "analyze as of",
			args: []string{"analyze", "1990-02-04 11:14", "-g", "남", "-l", "Reference", "--as-of", "2024-08-07"},
			want: []string{"현재", "2024-08-07"},
		},
		{
			name: "annual",
			args: []string{"annual", "--birth-year", "1990", "--start-age", "35", "--day-stem", "庚"},
			want: []string{"세운", "2024", "甲辰"},
		},
		{
			name: "annual korean stem",
			args: []string{"annual", "--birth-year", "1990", "--start-age", "35", "--day-stem", "경"},
			want: []string{"甲辰"},
		},
		{
			name: "monthly",
			args: []string{"monthly", "--year", "2024", "--day-stem", "庚"},
			want: []string{"월운", "丙寅"},
		},
		{
			name: "month",
			args: []string{"month", "2024", "8"},
			want: []string{"2024년 8월", "08-01", "08-31"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("execute %v: %v", tt.args, err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestAnalyzeJSON(t *testing.T) {
	out, err := execute(t, "--json", "analyze", "1990-02-04 11:14", "-g", "male", "-l", "Reference")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got struct {
		Chart struct {
			Year  string `json:"year"`
			Month string `json:"month"`
		} `json:"chart"`
		Luck struct {
			Forward  bool `json:"forward"`
			StartAge int  `json:"start_age"`
		} `json:"luck"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Chart.Year != "庚午" || got.Chart.Month != "戊寅" {
		t.Errorf("chart = %+v, want 庚午/戊寅", got.Chart)
	}
	if !got.Luck.Forward || got.Luck.StartAge != 10 {
		t.Errorf("luck = %+v, want forward from 10", got.Luck)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		kind string
	}{
		{"bad gender", []string{"analyze", "1990-02-04 11:14", "-g", "x"}, engine.KindMalformedInput},
		{"bad moment", []string{"analyze", "1990/02/04", "-g", "male"}, engine.KindMalformedInput},
		{"bad as-of", []string{"analyze", "1990-02-04 11:14", "-g", "male", "--as-of", "soon"}, engine.KindMalformedInput},
		{"outside tables", []string{"analyze", "1995-06-01 10:00", "-g", "male"}, engine.KindMissingCalendarRecord},
		{"bad stem", []string{"annual", "--birth-year", "1990", "--day-stem", "X"}, engine.KindMalformedInput},
		{"bad month", []string{"month", "2024", "13"}, engine.KindMalformedInput},
		{"month not a number", []string{"month", "2024", "aug"}, engine.KindMalformedInput},
		{"missing monthly record", []string{"monthly", "--year", "2026", "--day-stem", "庚"}, engine.KindMissingCalendarRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatalf("execute %v succeeded", tt.args)
			}
			if got := engine.Kind(err); got != tt.kind {
				t.Errorf("Kind(%v) = %s, want %s", err, got, tt.kind)
			}
		})
	}
}

func TestRequiredFlags(t *testing.T) {
	if _, err := execute(t, "annual", "--birth-year", "1990"); err == nil {
		t.Error("annual without --day-stem succeeded")
	}
	if _, err := execute(t, "analyze", "1990-02-04 11:14"); err == nil {
		t.Error("analyze without --gender succeeded")
	}
}
