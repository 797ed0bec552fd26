package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/config"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/logging"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/manager"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/memory"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/storage"
)

var configPath = flag.String("config", "config.yaml", "Configuration file path")

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		showHelp()
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.DefaultConfig()
		} else {
			fatalf("Failed to load configuration: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		fatalf("Invalid configuration: %v", err)
	}

	// CLI runs log to the console only
	cfg.Logging.Console = true
	cfg.Logging.File = ""
	if err := logging.InitGlobalLogger(cfg); err != nil {
		fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseGlobalLogger()

	db, err := storage.NewChannelStore(cfg.Storage.DatabasePath)
	if err != nil {
		fatalf("Failed to open channel store: %v", err)
	}

	mgr := manager.New(cfg, db, nil)
	defer mgr.Close()
	if err := mgr.LoadPersisted(); err != nil {
		fatalf("Failed to load channels: %v", err)
	}

	args := flag.Args()
	switch args[0] {
	case "list":
		cmdList(mgr)
	case "set":
		cmdSet(mgr, args[1:])
	case "clear":
		cmdClear(mgr, args[1:])
	case "upload":
		cmdUpload(mgr, args[1:])
	case "download":
		cmdDownload(mgr, args[1:])
	case "erase":
		cmdErase(mgr, args[1:])
	case "group":
		cmdGroup(mgr, args[1:])
	case "plan":
		cmdPlan(mgr)
	case "import":
		cmdImport(mgr, args[1:])
	case "export":
		cmdExport(mgr, args[1:])
	case "summary":
		cmdSummary(mgr)
	case "help":
		showHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		showHelp()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func cmdList(mgr *manager.Manager) {
	channels := mgr.Store().NonEmpty()
	if len(channels) == 0 {
		fmt.Println("No channels.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tNAME\tFREQUENCY\tMODE\tFILTER\tDUPLEX\tGROUP")
	for _, ch := range channels {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ch.Slot, ch.Name, memory.FormatFrequency(ch.RxFrequency),
			ch.Mode, ch.Filter, ch.Duplex, ch.Group)
	}
	w.Flush()
}

func cmdSet(mgr *manager.Manager, args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	name := fs.String("name", "", "Channel name (10 characters max)")
	freq := fs.String("freq", "", "RX frequency in MHz (e.g. 14.200)")
	txFreq := fs.String("tx", "", "TX frequency in MHz (split operation)")
	mode := fs.String("mode", "USB", "Operating mode")
	filter := fs.String("filter", "FIL1", "IF filter")
	group := fs.String("group", "", "Group id")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatalf("usage: set <slot> -freq <MHz> [-name <name>] [-mode <mode>] ...")
	}
	slot := parseSlot(fs.Arg(0))
	if *freq == "" {
		fatalf("-freq is required")
	}

	rx, err := memory.ParseFrequency(*freq)
	if err != nil {
		fatalf("%v", err)
	}
	m, err := memory.ParseMode(*mode)
	if err != nil {
		fatalf("%v", err)
	}
	f, err := memory.ParseFilter(*filter)
	if err != nil {
		fatalf("%v", err)
	}

	ch := memory.DefaultChannel(slot)
	ch.Name = *name
	ch.RxFrequency = rx
	ch.TxFrequency = rx
	ch.Mode = m
	ch.Filter = f
	ch.Group = *group
	if *txFreq != "" {
		tx, err := memory.ParseFrequency(*txFreq)
		if err != nil {
			fatalf("%v", err)
		}
		ch.TxFrequency = tx
		ch.Duplex = memory.DuplexSplit
	}

	if err := mgr.SetChannel(ch); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Slot %d: %s %s %s\n", slot, ch.Name, memory.FormatFrequency(ch.RxFrequency), ch.Mode)
}

func cmdClear(mgr *manager.Manager, args []string) {
	if len(args) < 1 {
		fatalf("usage: clear <slot>")
	}
	slot := parseSlot(args[0])
	if err := mgr.ClearLocalChannel(slot); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Slot %d cleared locally.\n", slot)
}

func cmdUpload(mgr *manager.Manager, args []string) {
	if len(args) >= 1 {
		slot := parseSlot(args[0])
		result, err := mgr.UploadChannel(slot)
		if err != nil {
			fatalf("%v", err)
		}
		if !result.Extended {
			fmt.Printf("Slot %d written without name/split data (failed at %s).\n", slot, result.FailedStep)
			return
		}
		fmt.Printf("Slot %d written.\n", slot)
		return
	}

	report, err := mgr.UploadAll(progressBar("Uploading"))
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Println()
	for _, r := range report.Ranges {
		fmt.Printf("  %s: slots %d-%d\n", r.Name, r.Start, r.End)
	}
	fmt.Printf("Done: %d written, %d partial, %d failed.\n",
		report.Written, report.Partial, report.Failed)
}

func cmdDownload(mgr *manager.Manager, args []string) {
	if len(args) >= 1 {
		slot := parseSlot(args[0])
		ch, found, err := mgr.DownloadChannel(slot)
		if err != nil {
			fatalf("%v", err)
		}
		if !found {
			fmt.Printf("Slot %d is empty.\n", slot)
			return
		}
		fmt.Printf("Slot %d: %s %s %s\n", slot, ch.Name,
			memory.FormatFrequency(ch.RxFrequency), ch.Mode)
		return
	}

	count, err := mgr.DownloadAll(0, memory.MaxSlot, progressBar("Downloading"))
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("\nDone: %d channels read.\n", count)
}

func cmdErase(mgr *manager.Manager, args []string) {
	if len(args) < 1 {
		fatalf("usage: erase <slot>")
	}
	slot := parseSlot(args[0])
	if err := mgr.ClearDeviceChannel(slot); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Slot %d erased on the radio.\n", slot)
}

func cmdGroup(mgr *manager.Manager, args []string) {
	if len(args) == 0 || args[0] == "list" {
		groups := mgr.Store().Groups()
		if len(groups) == 0 {
			fmt.Println("No groups.")
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tBASE SLOT\tMEMBERS")
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%d\t%d\n", g.ID, g.BaseSlot, len(mgr.Store().Members(g.ID)))
		}
		w.Flush()
		return
	}

	switch args[0] {
	case "add":
		if len(args) < 3 {
			fatalf("usage: group add <id> <base-slot>")
		}
		if err := mgr.AddGroup(args[1], parseSlot(args[2])); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Group %q added at base slot %s.\n", args[1], args[2])
	case "move":
		if len(args) < 3 {
			fatalf("usage: group move <id> <base-slot>")
		}
		if err := mgr.UpdateGroup(args[1], parseSlot(args[2])); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Group %q moved to base slot %s.\n", args[1], args[2])
	case "del":
		if len(args) < 2 {
			fatalf("usage: group del <id>")
		}
		if err := mgr.DeleteGroup(args[1]); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Group %q deleted.\n", args[1])
	default:
		fatalf("unknown group command %q", args[0])
	}
}

func cmdPlan(mgr *manager.Manager) {
	plan, err := mgr.Plan()
	if err != nil {
		fatalf("%v", err)
	}
	if len(plan.Assignments) == 0 {
		fmt.Println("Nothing to upload.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tNAME\tFREQUENCY\tRANGE")
	for _, slot := range plan.Slots() {
		ch := plan.Assignments[slot]
		rangeName := ""
		for _, r := range plan.Ranges {
			if slot >= r.Start && slot <= r.End {
				rangeName = r.Name
				break
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			slot, ch.Name, memory.FormatFrequency(ch.RxFrequency), rangeName)
	}
	w.Flush()
}

func cmdImport(mgr *manager.Manager, args []string) {
	if len(args) < 1 {
		fatalf("usage: import <file.csv|file.json>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		fatalf("%v", err)
	}
	defer f.Close()

	var count int
	if isJSON(args[0]) {
		count, err = mgr.ImportJSON(f)
	} else {
		count, err = mgr.ImportCSV(f)
	}
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Imported %d channels from %s.\n", count, args[0])
}

func cmdExport(mgr *manager.Manager, args []string) {
	if len(args) < 1 {
		fatalf("usage: export <file.csv|file.json>")
	}
	f, err := os.Create(args[0])
	if err != nil {
		fatalf("%v", err)
	}
	defer f.Close()

	if isJSON(args[0]) {
		err = mgr.ExportJSON(f)
	} else {
		err = mgr.ExportCSV(f)
	}
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Exported to %s.\n", args[0])
}

func cmdSummary(mgr *manager.Manager) {
	sum := mgr.Summary()
	fmt.Printf("Channels: %d used, %d free\n", sum.UsedChannels, sum.FreeChannels)
	if len(sum.ByBand) > 0 {
		fmt.Println("By band:")
		for band, count := range sum.ByBand {
			fmt.Printf("  %s: %d\n", band, count)
		}
	}
	if len(sum.ByMode) > 0 {
		fmt.Println("By mode:")
		for mode, count := range sum.ByMode {
			fmt.Printf("  %s: %d\n", mode, count)
		}
	}
}

func parseSlot(s string) int {
	slot, err := strconv.Atoi(s)
	if err != nil || slot < 0 || slot > memory.MaxSlot {
		fatalf("slot must be a number between 0 and %d", memory.MaxSlot)
	}
	return slot
}

func isJSON(path string) bool {
	return len(path) > 5 && path[len(path)-5:] == ".json"
}

func progressBar(verb string) func(current, total int) {
	return func(current, total int) {
		fmt.Printf("\r%s %d/%d...", verb, current, total)
	}
}

func showHelp() {
	fmt.Println("ic7300mem - IC-7300 Memory Channel Manager")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options] <command> [args]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config <path>    Configuration file (default: config.yaml)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list                          List local channels")
	fmt.Println("  set <slot> -freq <MHz> ...    Edit a local channel")
	fmt.Println("  clear <slot>                  Clear a local channel")
	fmt.Println("  upload [slot]                 Write channels to the radio")
	fmt.Println("  download [slot]               Read channels from the radio")
	fmt.Println("  erase <slot>                  Erase a slot on the radio")
	fmt.Println("  group [list|add|move|del]     Manage channel groups")
	fmt.Println("  plan                          Preview the upload slot layout")
	fmt.Println("  import <file>                 Import channels from CSV or JSON")
	fmt.Println("  export <file>                 Export channels to CSV or JSON")
	fmt.Println("  summary                       Show usage by band and mode")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s set 5 -freq 14.200 -name 'FT8' -mode USB-D\n", os.Args[0])
	fmt.Printf("  %s group add POTA 20\n", os.Args[0])
	fmt.Printf("  %s upload\n", os.Args[0])
}
