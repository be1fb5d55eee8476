// rctest compiles every test program in-process and compares the result
// against golden files (.rc sources) or inline assertions (.md case files).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/rcc/pkg/casefile"
	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/driver"
	"github.com/xplshn/rcc/pkg/util"
)

// Compilation is what a golden file records about one source.
type Compilation struct {
	Asm      string        `json:"asm,omitempty"`
	Error    string        `json:"error,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Symbols  string        `json:"symbols,omitempty"`
	Duration time.Duration `json:"duration"`
}

type FileTestResult struct {
	File     string       `json:"file"`
	Status   string       `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string       `json:"message,omitempty"`
	Diff     string       `json:"diff,omitempty"`
	Cases    int          `json:"cases,omitempty"`
	Golden   *Compilation `json:"golden,omitempty"`
	Compiled *Compilation `json:"compiled,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

// logger traces the compiler pipeline when -v is given.
var logger = util.Discard()

var (
	generateGolden = flag.String("generate-golden", "", "Generate a golden .json file for a given source file.")
	testFiles      = flag.String("test-files", "tests/*.rc tests/*.md", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	configFile     = flag.String("config", "", "YAML compiler configuration used for .rc files.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled.\n", cYellow, cNone)
		os.Exit(1)
	}()

	if *verbose {
		l, err := util.NewLogger(os.Stderr, "debug", "text")
		if err != nil {
			log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
		}
		logger = l
	}

	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFile(*configFile); err != nil {
			log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
		}
	}

	if *generateGolden != "" {
		handleGenerateGolden(*generateGolden, cfg)
		return
	}
	handleRunTestSuite(cfg)
}

func getJSONPath(sourceFile string) string {
	jsonFileName := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, jsonFileName)
	}
	return filepath.Join(filepath.Dir(sourceFile), jsonFileName)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// compile runs the pipeline on one file and records the outcome. A compile
// error is part of the result, not a failure of the harness.
func compile(file string, cfg *config.Config) (*Compilation, error) {
	sources, err := driver.ReadFiles([]string{file})
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := driver.New(cfg, logger.With("file", file)).Compile(sources)
	out := &Compilation{Duration: time.Since(start)}
	if err != nil {
		out.Error = err.Error()
		return out, nil
	}
	out.Asm = res.Asm
	out.Symbols = res.Bindings.Dump()
	for _, d := range res.Bindings.Diagnostics {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%d:%d: %s [-W%s]", d.Tok.Line, d.Tok.Column, d.Msg, cfg.Warnings[d.Warning].Name))
	}
	return out, nil
}

func handleGenerateGolden(sourceFile string, cfg *config.Config) {
	log.Printf("Generating golden file for %s...\n", sourceFile)

	golden, err := compile(sourceFile, cfg)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Could not generate golden file for %s: %v\n", cRed, cNone, sourceFile, err)
	}
	golden.Duration = 0

	jsonData, err := json.MarshalIndent(golden, "", "  ")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to marshal golden data to JSON: %v\n", cRed, cNone, err)
	}

	goldenFileName := getJSONPath(sourceFile)
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *jsonDir, err)
		}
	}
	if err := os.WriteFile(goldenFileName, jsonData, 0644); err != nil {
		log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, goldenFileName, err)
	}
	log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenFileName)
}

func handleRunTestSuite(cfg *config.Config) {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		if abs, err := filepath.Abs(f); err == nil {
			skipList[abs] = true
		}
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < max(*jobs, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- testFile(file, cfg)
			}
		}()
	}

	// Files with identical content are only tested once.
	seenHashes := make(map[uint64]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- file
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(allResults)
	if hasFailures(writeJSONReport(allResults)) {
		os.Exit(1)
	}
}

func testFile(file string, cfg *config.Config) *FileTestResult {
	switch filepath.Ext(file) {
	case ".md":
		return testCaseFile(file)
	case ".rc":
		return testWithGoldenFile(file, cfg)
	}
	return &FileTestResult{File: file, Status: "SKIP", Message: "Unknown file type"}
}

func testCaseFile(file string) *FileTestResult {
	data, err := os.ReadFile(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	cases, err := casefile.Extract(data)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}

	var diffs strings.Builder
	failed := 0
	for _, c := range cases {
		failures, err := casefile.Run(c, logger.With("file", file, "case", c.Name))
		if err != nil {
			return &FileTestResult{File: file, Status: "ERROR", Message: err.Error(), Cases: len(cases)}
		}
		if len(failures) > 0 {
			failed++
			fmt.Fprintf(&diffs, "Test '%s' (line %d):\n", c.Name, c.Line)
			for _, f := range failures {
				fmt.Fprintf(&diffs, "%s\n", f)
			}
		}
	}
	if failed > 0 {
		return &FileTestResult{
			File:    file,
			Status:  "FAIL",
			Message: fmt.Sprintf("%d of %d cases failed", failed, len(cases)),
			Diff:    diffs.String(),
			Cases:   len(cases),
		}
	}
	return &FileTestResult{File: file, Status: "PASS", Message: fmt.Sprintf("All %d cases passed", len(cases)), Cases: len(cases)}
}

func testWithGoldenFile(file string, cfg *config.Config) *FileTestResult {
	goldenFile := getJSONPath(file)
	goldenData, err := os.ReadFile(goldenFile)
	if os.IsNotExist(err) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read golden file %s: %v", goldenFile, err)}
	}
	var golden Compilation
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}

	compiled, err := compile(file, cfg)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	return compareCompilations(file, &golden, compiled)
}

func compareCompilations(file string, golden, compiled *Compilation) *FileTestResult {
	var diffs strings.Builder
	check := func(what string, want, got interface{}) {
		if d := cmp.Diff(want, got); d != "" {
			fmt.Fprintf(&diffs, "%s mismatch (-golden +compiled):\n%s", what, d)
		}
	}
	check("Error", golden.Error, compiled.Error)
	check("Assembly", golden.Asm, compiled.Asm)
	check("Warnings", golden.Warnings, compiled.Warnings)
	check("Symbols", golden.Symbols, compiled.Symbols)

	result := &FileTestResult{File: file, Golden: golden, Compiled: compiled}
	if diffs.Len() > 0 {
		result.Status, result.Message, result.Diff = "FAIL", "Compiler output differs from golden file", diffs.String()
		return result
	}
	result.Status, result.Message = "PASS", "Output matches golden file"
	if golden.Error != "" {
		result.Message = "Compilation failed as expected"
	}
	return result
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored, cases int
	var totalCompile time.Duration
	var compiledCount int

	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)

		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}
		cases += result.Cases

		if result.Compiled != nil {
			compiledCount++
			totalCompile += result.Compiled.Duration
			if *verbose {
				fmt.Printf("  [compile: %s]\n", formatDuration(result.Compiled.Duration))
			}
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
	if cases > 0 {
		fmt.Printf("%d Markdown cases checked.\n", cases)
	}
	if compiledCount > 0 {
		fmt.Printf("Average compile time: %s\n", strings.TrimSpace(formatDuration(totalCompile/time.Duration(compiledCount))))
	}
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}

	outputFile := *outputJSON
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *jsonDir, err)
		}
		outputFile = filepath.Join(*jsonDir, *outputJSON)
	}

	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
