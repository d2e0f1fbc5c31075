package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/repository"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

type check struct {
	Name     string
	Err      error
	Duration time.Duration
	Detail   string
}

func main() {
	var (
		backend string
		timeout time.Duration
		verbose bool
	)

	flag.StringVar(&backend, "backend", "http://localhost:8080/api/v1", "Students API endpoint (base URL plus prefix)")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.BoolVar(&verbose, "v", false, "Log every backend request")
	flag.Parse()

	logr := zap.NewNop()
	if verbose {
		var err error
		if logr, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
			os.Exit(2)
		}
	}

	repo := repository.NewStudentRepository(backend, &http.Client{Timeout: timeout}, nil, logr)
	checks := run(context.Background(), repo)
	printReport(checks)

	failed := 0
	for _, c := range checks {
		if c.Err != nil {
			failed++
		}
	}
	fmt.Printf("Failed checks: %d of %d\n", failed, len(checks))
	if failed > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, repo *repository.StudentRepository) []check {
	var checks []check

	start := time.Now()
	students, err := repo.List(ctx)
	list := check{Name: "GET /students", Err: err, Duration: time.Since(start)}
	if err == nil {
		list.Detail = fmt.Sprintf("%d records decoded", len(students))
	}
	checks = append(checks, list)

	if err != nil || len(students) == 0 {
		return checks
	}

	first := students[0]
	start = time.Now()
	student, err := repo.Get(ctx, first.ID)
	get := check{Name: fmt.Sprintf("GET /students/%d", first.ID), Err: err, Duration: time.Since(start)}
	if err == nil && student.ID != first.ID {
		get.Err = fmt.Errorf("expected id %d, got %d", first.ID, student.ID)
	}
	checks = append(checks, get)

	start = time.Now()
	_, err = repo.Get(ctx, -1)
	missing := check{Name: "GET /students/-1", Duration: time.Since(start)}
	switch {
	case err == nil:
		missing.Err = fmt.Errorf("expected a failure for an unknown id")
	case !appErrors.Is(err, appErrors.CodeBackend):
		missing.Err = err
	default:
		missing.Detail = appErrors.Reason(err)
	}
	checks = append(checks, missing)

	return checks
}

func printReport(results []check) {
	fmt.Println("Backend Contract Report")
	fmt.Println("=======================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s (%s)\n", status, res.Name, res.Duration)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
		} else if res.Detail != "" {
			fmt.Printf("  %s\n", res.Detail)
		}
	}
}
