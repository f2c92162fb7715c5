//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/compiler"
	"github.com/eliteGoblin/closurebatch/internal/domain"
	"github.com/eliteGoblin/closurebatch/internal/guard"
	"github.com/eliteGoblin/closurebatch/internal/infra"
	"github.com/eliteGoblin/closurebatch/internal/resolver"
	"github.com/eliteGoblin/closurebatch/internal/usecase"
	"github.com/eliteGoblin/closurebatch/test/fixtures"
)

// exitRecorder stands in for the host process exit.
type exitRecorder struct {
	codes []int
}

func (e *exitRecorder) Exit(code int) { e.codes = append(e.codes, code) }

var _ = Describe("Orchestrator", func() {
	var (
		tmpDir   string
		tree     *fixtures.SourceTree
		exits    *exitRecorder
		hook     *guard.Hook
		store    *infra.SQLiteStampStore
		orch     domain.Orchestrator
		runCfg   domain.RunConfig
		registry *compiler.Registry
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "closurebatch-integration-*")
		Expect(err).NotTo(HaveOccurred())

		tree = fixtures.NewSourceTree(tmpDir)
		Expect(tree.Create()).To(Succeed())

		store, err = infra.NewSQLiteStampStore(filepath.Join(tmpDir, "state", infra.DefaultStateFileName))
		Expect(err).NotTo(HaveOccurred())

		logger := zap.NewNop()
		fs := infra.NewFileSystemManager()
		exits = &exitRecorder{}
		hook = guard.NewHook(exits)
		boundary := guard.NewBoundary(hook)

		registry = compiler.NewRegistry()
		c, err := registry.Build(compiler.BackendPassthrough, compiler.Env{Boundary: boundary, Logger: logger})
		Expect(err).NotTo(HaveOccurred())

		ctrl := guard.NewController(c, boundary, guard.NewUpToDate(fs, store, logger), fs, logger)
		orch = usecase.NewOrchestrator(resolver.New(fs, logger), ctrl, logger)

		runCfg = domain.RunConfig{
			ScanConfig: domain.ScanConfig{
				InputDir:  tree.InputDir,
				OutputDir: tree.OutputDir,
				Recursive: true,
			},
			Level: "WHITESPACE_ONLY",
		}
	})

	AfterEach(func() {
		store.Close()
		os.RemoveAll(tmpDir)
	})

	Describe("Run", func() {
		Context("with two sources and no version", func() {
			It("should write one target per source under the same name", func() {
				report, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Compiled()).To(HaveLen(2))

				Expect(tree.Outputs()).To(Equal([]string{"one.js", "two.js"}))
				Expect(os.ReadFile(tree.Target("two.js"))).To(Equal([]byte(fixtures.DefaultSources["two.js"])))
			})
		})

		Context("after clearing the output and adding a version", func() {
			It("should write versioned targets only", func() {
				_, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(tree.ClearOutput()).To(Succeed())

				runCfg.Version = "1.0.0"
				report, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Compiled()).To(HaveLen(2))

				Expect(tree.Outputs()).To(Equal([]string{"one-1.0.0.js", "two-1.0.0.js"}))
			})
		})

		Context("with an exclude pattern", func() {
			It("should skip matching sources", func() {
				runCfg.Excludes = []string{"two"}

				report, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())

				Expect(report.Excluded).To(ConsistOf(tree.Source("two.js")))
				Expect(tree.Outputs()).To(Equal([]string{"one.js"}))
			})
		})

		Context("with an invalid exclude pattern", func() {
			It("should compile nothing and report a configuration error", func() {
				runCfg.Excludes = []string{"[a-"}

				_, err := orch.Run(context.Background(), runCfg)
				Expect(err).To(MatchError(domain.ErrConfig))

				Expect(tree.Outputs()).To(BeEmpty())
			})
		})

		Context("with invalid directories", func() {
			DescribeTable("should refuse to run",
				func(input, output func() string) {
					runCfg.InputDir = input()
					runCfg.OutputDir = output()

					_, err := orch.Run(context.Background(), runCfg)
					Expect(err).To(MatchError(domain.ErrInvalidDirectories))
					Expect(tree.Outputs()).To(BeEmpty())
				},
				Entry("missing input",
					func() string { return filepath.Join(tmpDir, "nope") },
					func() string { return tree.OutputDir }),
				Entry("missing output",
					func() string { return tree.InputDir },
					func() string { return filepath.Join(tmpDir, "nope") }),
				Entry("both missing",
					func() string { return filepath.Join(tmpDir, "nope") },
					func() string { return filepath.Join(tmpDir, "nada") }),
				Entry("input is a file",
					func() string { return tree.Source("one.js") },
					func() string { return tree.OutputDir }),
			)
		})

		Context("when run twice", func() {
			It("should skip up-to-date targets and leave them byte-identical", func() {
				_, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())
				before, err := os.ReadFile(tree.Target("one.js"))
				Expect(err).NotTo(HaveOccurred())

				report, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Skipped()).To(HaveLen(2))
				Expect(report.Compiled()).To(BeEmpty())

				Expect(os.ReadFile(tree.Target("one.js"))).To(Equal(before))
			})

			It("should recompile a source whose content changed", func() {
				_, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())

				Expect(tree.WriteSource("one.js", "function one() { return 11; }")).To(Succeed())

				report, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Compiled()).To(HaveLen(1))
				Expect(report.Skipped()).To(HaveLen(1))
				Expect(os.ReadFile(tree.Target("one.js"))).To(Equal([]byte("function one() { return 11; }")))
			})
		})

		Context("with nested sources", func() {
			It("should mirror the directory layout in the output", func() {
				Expect(tree.WriteSource("lib/util/three.js", "var three = 3;")).To(Succeed())
				runCfg.Version = "2.0"

				_, err := orch.Run(context.Background(), runCfg)
				Expect(err).NotTo(HaveOccurred())

				Expect(tree.Outputs()).To(Equal([]string{
					"lib/util/three-2.0.js",
					"one-2.0.js",
					"two-2.0.js",
				}))
			})
		})

		It("should never let the compiler exit the process", func() {
			_, err := orch.Run(context.Background(), runCfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(exits.codes).To(BeEmpty())
			Expect(hook.Policy()).To(BeIdenticalTo(guard.ExitPolicy(exits)))
		})
	})
})
