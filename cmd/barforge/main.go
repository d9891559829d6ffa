// BarForge: steel bar allocation and remnant ledger.
//
// Plans cutting layouts for required pieces against warehouse stock,
// commits the resulting consumption atomically, and tracks every remnant
// from its root lot to reuse or scrap.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/config"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/database"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/export"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/importer"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/logging"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/repository"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/service"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const usage = `Usage: barforge [-config path] <command> [flags]

Commands:
  intake    Register a delivered purchase lot
  stock     List stock items
  plan      Compute a cutting plan from a piece list file
  commit    Apply a stored plan's stock consumption
  reopt     Re-optimize a stored plan against current stock
  scrap     Write off an available remnant
  labels    Generate QR rack labels for available remnants
  worker    Run the background job worker
  version   Show version and exit
`

type app struct {
	cfg    config.Config
	db     *database.DB
	log    *logrus.Logger
	alloc  *service.AllocationService
	stocks *service.StockService
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if args[0] == "version" {
		fmt.Printf("barforge version %s (built %s)\n", Version, BuildTime)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, *configPath, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "barforge: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, command string, args []string) error {
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logging.New(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	a := &app{
		cfg:    cfg,
		db:     db,
		log:    log,
		alloc:  service.NewAllocationService(db, cfg.Cutting.StandardLengthMm, cfg.Cutting.MinRemnantMm, log),
		stocks: service.NewStockService(db, log),
	}

	switch command {
	case "intake":
		return a.runIntake(ctx, args)
	case "stock":
		return a.runStock(ctx, args)
	case "plan":
		return a.runPlan(ctx, args)
	case "commit":
		return a.runCommit(ctx, args)
	case "reopt":
		return a.runReoptimize(ctx, args)
	case "scrap":
		return a.runScrap(ctx, args)
	case "labels":
		return a.runLabels(ctx, args)
	case "worker":
		return a.runWorker(ctx, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) runIntake(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("intake", flag.ExitOnError)
	profile := fs.String("profile", "", "Profile designation (e.g. HEA100)")
	grade := fs.String("grade", "", "Steel grade (e.g. S235)")
	length := fs.Int("length", 0, "Bar length in mm")
	qty := fs.Int("qty", 1, "Number of bars in the lot")
	cost := fs.String("cost", "0", "Cost per meter")
	fs.Parse(args)

	costPerMeter, err := decimal.NewFromString(*cost)
	if err != nil {
		return fmt.Errorf("invalid cost %q: %w", *cost, err)
	}

	lot, err := a.stocks.ReceiveLot(ctx, *profile, *grade, *length, *qty, costPerMeter)
	if err != nil {
		return err
	}
	fmt.Printf("Received lot %s: %d x %dmm %s %s at %s/m\n",
		lot.ID, lot.QuantityAtHand, lot.LengthMm, lot.Profile, lot.Grade, lot.CostPerMeter)
	return nil
}

func (a *app) runStock(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stock", flag.ExitOnError)
	profile := fs.String("profile", "", "Filter by profile")
	grade := fs.String("grade", "", "Filter by grade")
	kind := fs.String("kind", "", "Filter by kind (LOT or REMNANT)")
	status := fs.String("status", "", "Filter by status")
	fs.Parse(args)

	items, err := a.stocks.List(ctx, repository.StockFilter{
		Profile: *profile,
		Grade:   *grade,
		Kind:    model.StockKind(*kind),
		Status:  model.StockStatus(*status),
	})
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println("No stock items found.")
		return nil
	}
	fmt.Printf("%-20s %-8s %-10s %-7s %8s %5s %10s %s\n",
		"ID", "KIND", "PROFILE", "GRADE", "LENGTH", "QTY", "COST/M", "STATUS")
	for _, item := range items {
		fmt.Printf("%-20s %-8s %-10s %-7s %8d %5d %10s %s\n",
			item.ID, item.Kind, item.Profile, item.Grade,
			item.LengthMm, item.QuantityAtHand, item.CostPerMeter, item.Status)
	}
	return nil
}

func (a *app) runPlan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	piecesPath := fs.String("pieces", "", "Piece list file (.csv or .xlsx)")
	pdfPath := fs.String("pdf", "", "Write the cutting plan PDF to this path")
	xlsxPath := fs.String("xlsx", "", "Write the allocation workbook to this path")
	fs.Parse(args)

	if *piecesPath == "" {
		return fmt.Errorf("-pieces is required")
	}

	var imported importer.ImportResult
	switch strings.ToLower(filepath.Ext(*piecesPath)) {
	case ".xlsx", ".xls":
		imported = importer.ImportExcel(*piecesPath)
	default:
		imported = importer.ImportCSV(*piecesPath)
	}
	for _, w := range imported.Warnings {
		a.log.Warn(w)
	}
	if len(imported.Errors) > 0 {
		for _, e := range imported.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		return fmt.Errorf("piece list has %d invalid rows", len(imported.Errors))
	}
	if len(imported.Pieces) == 0 {
		return fmt.Errorf("no pieces found in %s", *piecesPath)
	}

	stored, err := a.alloc.ComputePlan(ctx, imported.Pieces)
	if err != nil {
		return err
	}

	printPlan(stored)

	if *pdfPath != "" {
		if err := export.ExportPlanPDF(*pdfPath, stored.Result); err != nil {
			return err
		}
		fmt.Printf("Cutting plan PDF written to %s\n", *pdfPath)
	}
	if *xlsxPath != "" {
		if err := export.ExportWorkbook(*xlsxPath, stored.Result); err != nil {
			return err
		}
		fmt.Printf("Allocation workbook written to %s\n", *xlsxPath)
	}
	return nil
}

func printPlan(stored repository.StoredPlan) {
	fmt.Printf("Plan %s\n", stored.ID)
	for _, plan := range stored.Result.Plans {
		fmt.Printf("\n%s / %s (waste %dmm, utilization %.1f%%)\n",
			plan.Profile, plan.Grade, plan.TotalWasteMm(), plan.Utilization())
		for _, a := range plan.StockUsed {
			fmt.Printf("  %s (%s, %dmm): %s | leftover %dmm\n",
				a.StockID, a.Kind, a.StockLengthMm, formatPieces(a.Pieces), a.WasteMm)
		}
		for i, n := range plan.NewStock {
			tag := ""
			if n.Oversize {
				tag = " SPECIAL ORDER"
			}
			fmt.Printf("  new bar %d (%dmm)%s: %s | leftover %dmm\n",
				i+1, n.LengthMm, tag, formatPieces(n.Pieces), n.WasteMm)
		}
		for _, line := range plan.PurchaseList() {
			orderType := "standard"
			if line.Oversize {
				orderType = "special order"
			}
			fmt.Printf("  purchase: %d x %dmm (%s)\n", line.Quantity, line.LengthMm, orderType)
		}
	}
	if len(stored.Result.Skipped) > 0 {
		fmt.Println("\nSkipped pieces:")
		for _, s := range stored.Result.Skipped {
			fmt.Printf("  %s (%dmm, qty %d): %s\n",
				s.Piece.Label, s.Piece.LengthMm, s.Piece.Quantity, s.Reason)
		}
	}
}

func formatPieces(pieces []model.PieceCut) string {
	parts := make([]string, len(pieces))
	for i, p := range pieces {
		parts[i] = fmt.Sprintf("%s %dmm", p.Label, p.LengthMm)
	}
	return strings.Join(parts, ", ")
}

func (a *app) runCommit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("commit", flag.ExitOnError)
	planID := fs.String("plan", "", "Stored plan ID")
	requestID := fs.String("request", "", "Idempotency key for this commit")
	projectRef := fs.String("project", "", "Project reference for the usage record")
	scrapList := fs.String("scrap", "", "Comma-separated stock IDs whose leftovers go to scrap")
	labelsPath := fs.String("labels", "", "Write QR labels for created remnants to this path")
	fs.Parse(args)

	if *planID == "" {
		return fmt.Errorf("-plan is required")
	}
	if *requestID == "" {
		return fmt.Errorf("-request is required")
	}

	stored, err := a.alloc.GetPlan(ctx, *planID)
	if err != nil {
		return err
	}

	dispositions := make(map[string]model.RemnantDisposition)
	if *scrapList != "" {
		for _, id := range strings.Split(*scrapList, ",") {
			dispositions[strings.TrimSpace(id)] = model.DispositionScrap
		}
	}

	result, err := a.alloc.CommitAllocation(ctx, service.CommitRequest{
		RequestID:    *requestID,
		ProjectRef:   *projectRef,
		Plans:        stored.Result.Plans,
		Dispositions: dispositions,
	})
	if err != nil {
		return err
	}

	if result.Replayed {
		fmt.Printf("Commit %s was already applied; nothing changed.\n", result.UsageID)
	} else {
		fmt.Printf("Committed usage %s, total cost %s\n", result.UsageID, result.TotalCost)
	}
	for _, id := range result.CreatedRemnants {
		fmt.Printf("  remnant %s\n", id)
	}

	if *labelsPath != "" && len(result.CreatedRemnants) > 0 {
		labels, err := a.remnantLabels(ctx, result.CreatedRemnants)
		if err != nil {
			return err
		}
		if err := export.ExportRemnantLabels(*labelsPath, labels); err != nil {
			return err
		}
		fmt.Printf("Remnant labels written to %s\n", *labelsPath)
	}
	return nil
}

func (a *app) remnantLabels(ctx context.Context, ids []string) ([]export.RemnantLabel, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	items, err := a.stocks.List(ctx, repository.StockFilter{Kind: model.KindRemnant})
	if err != nil {
		return nil, err
	}
	var selected []model.StockItem
	for _, item := range items {
		if wanted[item.ID] {
			selected = append(selected, item)
		}
	}
	return export.CollectRemnantLabels(selected), nil
}

func (a *app) runReoptimize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reopt", flag.ExitOnError)
	planID := fs.String("plan", "", "Stored plan ID")
	queue := fs.Bool("queue", false, "Enqueue for the background worker instead of running inline")
	purchaseLength := fs.Int("purchase-length", 0, "Override the standard purchase length in mm")
	fs.Parse(args)

	if *planID == "" {
		return fmt.Errorf("-plan is required")
	}

	var overrides []model.MaterialOverride
	if *purchaseLength > 0 {
		overrides = append(overrides, model.MaterialOverride{PurchaseLengthMm: *purchaseLength})
	}

	if *queue {
		worker := service.NewWorker("cli", a.db, a.alloc,
			time.Duration(a.cfg.Worker.PollIntervalMs)*time.Millisecond,
			a.cfg.Worker.MaxAttempts, a.log)
		jobID, err := worker.EnqueueReoptimize(ctx, service.ReoptimizePayload{
			PlanID:    *planID,
			Overrides: overrides,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Queued re-optimization job %s\n", jobID)
		return nil
	}

	next, err := a.alloc.Reoptimize(ctx, *planID, overrides)
	if err != nil {
		return err
	}
	printPlan(next)
	return nil
}

func (a *app) runScrap(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scrap", flag.ExitOnError)
	remnantID := fs.String("remnant", "", "Remnant ID to write off")
	fs.Parse(args)

	if *remnantID == "" {
		return fmt.Errorf("-remnant is required")
	}
	if err := a.stocks.ScrapRemnant(ctx, *remnantID); err != nil {
		return err
	}
	fmt.Printf("Remnant %s scrapped.\n", *remnantID)
	return nil
}

func (a *app) runLabels(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("labels", flag.ExitOnError)
	out := fs.String("out", "remnant-labels.pdf", "Output PDF path")
	fs.Parse(args)

	items, err := a.stocks.List(ctx, repository.StockFilter{
		Kind:   model.KindRemnant,
		Status: model.StatusAvailable,
	})
	if err != nil {
		return err
	}
	labels := export.CollectRemnantLabels(items)
	if err := export.ExportRemnantLabels(*out, labels); err != nil {
		return err
	}
	fmt.Printf("%d labels written to %s\n", len(labels), *out)
	return nil
}

func (a *app) runWorker(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	workerID := fs.String("id", "", "Worker identifier (defaults to hostname)")
	fs.Parse(args)

	id := *workerID
	if id == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "worker"
		}
		id = host
	}

	worker := service.NewWorker(id, a.db, a.alloc,
		time.Duration(a.cfg.Worker.PollIntervalMs)*time.Millisecond,
		a.cfg.Worker.MaxAttempts, a.log)

	err := worker.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
