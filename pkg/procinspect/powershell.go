// ML Maid Core
// Copyright (c) 2026 The ML Maid Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ML Maid Core.
//
// ML Maid Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ML Maid Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ML Maid Core.  If not, see <http://www.gnu.org/licenses/>.

package procinspect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/helpers/command"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"
)

const powerShellExe = "powershell"

// scriptPrelude forces UTF-8 output so non-ASCII install paths survive.
const scriptPrelude = `$OutputEncoding = [System.Text.Encoding]::UTF8
[Console]::OutputEncoding = [System.Text.Encoding]::UTF8
`

const listScript = `Get-CimInstance -ClassName Win32_Process | ForEach-Object {
    Write-Output "$($_.ProcessId)|$($_.ExecutablePath)|$($_.Name)"
}
`

const runningScriptFmt = `$targetPids = @(%s)
Get-CimInstance -ClassName Win32_Process | Where-Object { $targetPids -contains $_.ProcessId } | ForEach-Object {
    Write-Output $_.ProcessId
}
`

// PowerShell queries Win32_Process through the administrative shell. It is
// slower than the native backend but sees the same view of the process
// table as the system's own tooling.
type PowerShell struct {
	exec    command.Executor
	shell   string
	timeout time.Duration
}

func NewPowerShell(exec command.Executor, timeout time.Duration) *PowerShell {
	if exec == nil {
		exec = &command.RealExecutor{}
	}
	return &PowerShell{
		exec:    exec,
		shell:   powerShellExe,
		timeout: timeout,
	}
}

func (p *PowerShell) ListProcesses(ctx context.Context) []ProcessRecord {
	out, err := p.run(ctx, listScript)
	if err != nil {
		log.Warn().Err(err).Msg("procinspect: failed to list processes with powershell")
		return nil
	}
	return parseProcessLines(out, true)
}

func (p *PowerShell) FindByNames(ctx context.Context, names []string) []ProcessRecord {
	if NewNameMatcher(names).Empty() {
		return nil
	}
	out, err := p.run(ctx, listScript)
	if err != nil {
		log.Warn().Err(err).Msg("procinspect: failed to find processes with powershell")
		return nil
	}
	return filterByNames(parseProcessLines(out, false), names)
}

func (p *PowerShell) Running(ctx context.Context, pids []int) []int {
	if len(pids) == 0 {
		return nil
	}

	wanted := make(map[int]struct{}, len(pids))
	list := make([]string, 0, len(pids))
	for _, pid := range pids {
		if _, dup := wanted[pid]; dup {
			continue
		}
		wanted[pid] = struct{}{}
		list = append(list, strconv.Itoa(pid))
	}

	out, err := p.run(ctx, fmt.Sprintf(runningScriptFmt, strings.Join(list, ",")))
	if err != nil {
		log.Warn().Err(err).Msg("procinspect: failed to check running processes with powershell")
		return nil
	}

	running := make([]int, 0, len(wanted))
	for _, pid := range parsePIDLines(out) {
		if _, ok := wanted[pid]; ok {
			running = append(running, pid)
		}
	}
	return running
}

func (p *PowerShell) run(ctx context.Context, script string) ([]byte, error) {
	encoded, err := encodeScript(scriptPrelude + script)
	if err != nil {
		return nil, err
	}

	qctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.exec.Output(qctx, p.shell,
		"-NoProfile",
		"-NonInteractive",
		"-ExecutionPolicy", "Bypass",
		"-EncodedCommand", encoded,
	)
	if err != nil {
		return nil, fmt.Errorf("powershell query failed: %w", err)
	}
	return out, nil
}

// encodeScript produces the base64 UTF-16LE form -EncodedCommand expects,
// which avoids quoting the script on the command line or writing it to a
// temporary file.
func encodeScript(script string) (string, error) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(script)
	if err != nil {
		return "", fmt.Errorf("failed to encode powershell script: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(utf16)), nil
}

// parseProcessLines reads "pid|path|name" lines. Malformed lines are
// skipped. With requirePath, lines without an executable path are skipped
// too.
func parseProcessLines(out []byte, requirePath bool) []ProcessRecord {
	var records []ProcessRecord
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || pid <= 0 {
			continue
		}
		path := strings.TrimSpace(parts[1])
		name := strings.TrimSpace(parts[2])
		if name == "" || (requirePath && path == "") {
			continue
		}
		records = append(records, ProcessRecord{PID: pid, Path: path, Name: name})
	}
	return records
}

func parsePIDLines(out []byte) []int {
	var pids []int
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}
