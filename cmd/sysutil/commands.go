package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/INLOpen/fsprobe/bench"
	"github.com/INLOpen/fsprobe/config"
	"github.com/INLOpen/fsprobe/fsutil"
	"github.com/INLOpen/fsprobe/probe"
	"github.com/INLOpen/fsprobe/sys"
)

func newProbeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Create a file and try to preallocate space for it",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().String("path", "", "File to create (default from config)")
	cmd.Flags().String("size", "", "Bytes to preallocate, e.g. 100000000 or 100MB (default from config)")
	cmd.Flags().Int64("offset", 0, "Offset to start preallocation at")
	cmd.Flags().String("mode", "", "Allocation mode flags, e.g. keep_size")
	cmd.Flags().Bool("small", false, "Use the 1,000,000 byte probe")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		opts, err := probeOptions(cmd, a.cfg.Probe)
		if err != nil {
			return err
		}
		res := probe.Run(opts, cmd.OutOrStdout(), a.logger)
		a.span.SetAttributes(outcomeAttr(res.Outcome))
		if code := res.ExitCode(); code != 0 {
			return exitError{code: code}
		}
		return nil
	})
	return cmd
}

func probeOptions(cmd *cobra.Command, pc config.ProbeConfig) (probe.Options, error) {
	opts, err := probe.FromConfig(pc)
	if err != nil {
		return opts, err
	}

	if small, _ := cmd.Flags().GetBool("small"); small {
		opts.Length = probe.SmallLength
	}
	flags := cmd.Flags()
	if flags.Changed("path") {
		opts.Path, _ = flags.GetString("path")
	}
	if flags.Changed("size") {
		s, _ := flags.GetString("size")
		if opts.Length, err = parseSize(s); err != nil {
			return opts, err
		}
	}
	if flags.Changed("offset") {
		opts.Offset, _ = flags.GetInt64("offset")
	}
	if flags.Changed("mode") {
		m, _ := flags.GetString("mode")
		if opts.Mode, err = sys.ParseAllocMode(m); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func newFallocateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fallocate FILE SIZE",
		Short: "Reserve SIZE bytes for FILE",
		Long:  "Reserve SIZE bytes for FILE. By default the file is created (or truncated with --force) and grows to SIZE. With --best-effort the space is reserved without changing the file size, where the filesystem allows it.",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	cmd.Flags().String("perm", "0664", "Permission bits for a newly created file (octal)")
	cmd.Flags().Bool("best-effort", false, "Reserve without changing the file size; unsupported filesystems are not an error")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		size, err := parseSize(args[1])
		if err != nil {
			return err
		}
		permStr, _ := cmd.Flags().GetString("perm")
		perm, err := strconv.ParseUint(permStr, 8, 32)
		if err != nil {
			return fmt.Errorf("invalid --perm %q: %w", permStr, err)
		}
		force, _ := cmd.Flags().GetBool("force")
		bestEffort, _ := cmd.Flags().GetBool("best-effort")

		if !bestEffort {
			if err := fsutil.FileFallocate(args[0], size, os.FileMode(perm)&os.ModePerm, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reserved %s for %s\n", sizeFormatter(cmd)(uint64(size)), args[0])
			return nil
		}

		f, err := sys.OpenFile(args[0], os.O_CREATE|os.O_RDWR, os.FileMode(perm)&os.ModePerm)
		if err != nil {
			return err
		}
		defer f.Close()
		err = sys.Preallocate(f, size)
		switch {
		case errors.Is(err, sys.ErrPreallocNotSupported):
			a.logger.Warn("Preallocation not supported, continuing", "path", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "preallocation not supported for %s\n", args[0])
		case err != nil:
			return err
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "reserved %s for %s\n", sizeFormatter(cmd)(uint64(size)), args[0])
		}
		st := sys.ReadPreallocStats()
		a.logger.Debug("Preallocation counters", "hits", st.CacheHits, "misses", st.CacheMisses, "successes", st.Successes, "failures", st.Failures, "unsupported", st.Unsupported)
		return nil
	})
	return cmd
}

func newStatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stat PATH...",
		Short: "Show usage of the filesystems holding PATHs",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		format := sizeFormatter(cmd)
		var data [][]string
		for _, p := range args {
			st, err := fsutil.FsStatFromPath(p)
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			data = append(data, []string{p, st.Fstype, format(st.Total), format(st.Used), format(st.Free), fmt.Sprintf("%.1f%%", st.UsedPercent)})
		}
		table := newTable(cmd.OutOrStdout(), "PATH", "FSTYPE", "TOTAL", "USED", "FREE", "USE%")
		table.AppendBulk(data)
		table.Render()
		return nil
	})
	return cmd
}

func newMountsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mounts",
		Short: "List mounted filesystems",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Bool("all", false, "Include virtual filesystems")
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		parts, err := fsutil.Partitions(all)
		if err != nil {
			return err
		}
		var data [][]string
		for _, p := range parts {
			data = append(data, []string{p.Device, p.Mountpoint, p.Fstype, strings.Join(p.Opts, ",")})
		}
		table := newTable(cmd.OutOrStdout(), "DEVICE", "MOUNTPOINT", "FSTYPE", "OPTIONS")
		table.AppendBulk(data)
		table.Render()
		return nil
	})
	return cmd
}

func newDuCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "du PATH...",
		Short: "Sum the apparent size of files under PATHs",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().Int("jobs", 4, "Number of paths sized concurrently")
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		jobs, _ := cmd.Flags().GetInt("jobs")
		sizes, err := fsutil.DirSizes(cmd.Context(), args, jobs)
		if err != nil {
			return err
		}
		format := sizeFormatter(cmd)
		for i, p := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", format(uint64(sizes[i])), p)
		}
		return nil
	})
	return cmd
}

func newLsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls DIR",
		Short: "List entries of DIR",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().Bool("dirs", false, "Only list directories")
	cmd.Flags().Bool("abs", false, "Print paths joined onto DIR")
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		dirsOnly, _ := cmd.Flags().GetBool("dirs")
		abs, _ := cmd.Flags().GetBool("abs")
		var names []string
		var err error
		switch {
		case dirsOnly:
			names, err = fsutil.LsDirs(args[0])
		case abs:
			names, err = fsutil.LsNamesAbs(args[0])
		default:
			names, err = fsutil.LsNames(args[0])
		}
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	})
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve PATH...",
		Short: "Print PATHs with symlinks evaluated",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		resolved, err := fsutil.ResolveSymlinks(args)
		for _, p := range resolved {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return err
	})
	return cmd
}

func newExistsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exists PATH",
		Short: "Report whether PATH is an existing file (or directory with --dir)",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().Bool("dir", false, "Check for a directory instead of a file")
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		isDir, _ := cmd.Flags().GetBool("dir")
		check := fsutil.FileExists
		if isDir {
			check = fsutil.DirExists
		}
		ok, err := check(args[0])
		if err != nil && !ok {
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "false")
				return exitError{code: 1}
			}
			return err
		}
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "false")
			a.logger.Info("Path exists with the wrong type", "path", args[0], "error", err)
			return exitError{code: 1}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "true")
		return nil
	})
	return cmd
}

func newMountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount SRC... ROOT",
		Short: "Bind mount each SRC directory under ROOT",
		Args:  cobra.MinimumNArgs(2),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		fsutil.MountLockTimeout = config.ParseDuration(a.cfg.Mount.LockTimeout, fsutil.MountLockTimeout, a.logger)
		return fsutil.MountBindAll(args...)
	})
	return cmd
}

func newUmountAllCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "umount-all ROOT",
		Short: "Unmount every mount point directly under ROOT",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		fsutil.MountLockTimeout = config.ParseDuration(a.cfg.Mount.LockTimeout, fsutil.MountLockTimeout, a.logger)
		return fsutil.UmountAll(args[0])
	})
	return cmd
}

func newBenchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure preallocation latency",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().String("dir", "", "Directory to create test files in (default from config)")
	cmd.Flags().String("size", "", "Bytes per preallocation (default from config)")
	cmd.Flags().Int("iterations", 0, "Number of preallocations (default from config)")
	cmd.Flags().String("strategy", "", "raw, keep_size or best_effort (default from config)")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		bc := a.cfg.Bench
		flags := cmd.Flags()
		if flags.Changed("dir") {
			bc.Dir, _ = flags.GetString("dir")
		}
		if flags.Changed("iterations") {
			bc.Iterations, _ = flags.GetInt("iterations")
		}
		if flags.Changed("strategy") {
			bc.Strategy, _ = flags.GetString("strategy")
		}
		if flags.Changed("size") {
			s, _ := flags.GetString("size")
			n, err := parseSize(s)
			if err != nil {
				return err
			}
			bc.SizeBytes = n
		}

		timeout := config.ParseDuration(bc.Timeout, time.Minute, a.logger)
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		rep, err := bench.Run(ctx, bench.Options{
			Dir:        bc.Dir,
			SizeBytes:  bc.SizeBytes,
			Iterations: bc.Iterations,
			Strategy:   bench.Strategy(bc.Strategy),
		}, a.logger)
		if rep == nil {
			return err
		}
		format := sizeFormatter(cmd)
		table := newTable(cmd.OutOrStdout(), "STRATEGY", "SIZE", "RUNS", "FAILED", "UNSUPPORTED", "MIN", "P50", "P90", "P99", "MAX")
		table.Append([]string{
			string(rep.Strategy), format(uint64(rep.SizeBytes)),
			strconv.Itoa(rep.Iterations), strconv.Itoa(rep.Failures), strconv.Itoa(rep.Unsupported),
			rep.Min.String(), rep.P50.String(), rep.P90.String(), rep.P99.String(), rep.Max.String(),
		})
		table.Render()
		if err != nil {
			return err
		}
		if rep.LastErr != nil && rep.Failures == rep.Iterations {
			return fmt.Errorf("every preallocation failed: %w", rep.LastErr)
		}
		return nil
	})
	return cmd
}
