// Package report renders a decoded ELF file for people and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/raven-betanet/elf-inspector/internal/checks"
	"github.com/raven-betanet/elf-inspector/internal/elfhdr"
)

// Format represents the output format of a report
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (valid: text, json, table)", s)
	}
}

// Options controls rendering
type Options struct {
	Format      Format
	FlagsPolicy elfhdr.FlagsPolicy
}

var titleClr = color.New(color.Bold)

// Render writes f to w. checkReport may be nil.
func Render(w io.Writer, f *elfhdr.File, checkReport *checks.Report, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return renderText(w, f, checkReport, opts.FlagsPolicy)
	case FormatJSON:
		return renderJSON(w, f, checkReport, opts.FlagsPolicy)
	case FormatTable:
		return renderTable(w, f, checkReport, opts.FlagsPolicy)
	default:
		return errors.Errorf("unsupported output format: %s", opts.Format)
	}
}

// NotELF writes the message printed for an input whose magic does not match.
func NotELF(w io.Writer, path string, e *elfhdr.NotELFError) error {
	_, err := fmt.Fprintf(w, "%s is not an ELF file (%s)\n", path, e.Hex())
	return err
}

// errWriter keeps the first write error so the text renderer can stay a flat
// list of Fprintf calls.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) title(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = titleClr.Fprintln(ew.w, s)
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

func renderText(w io.Writer, f *elfhdr.File, checkReport *checks.Report, policy elfhdr.FlagsPolicy) error {
	h := f.Header
	ew := &errWriter{w: w}

	ew.title("Full header:")
	ew.printf("%s\n", hexBytes(h.Raw[:]))
	ew.printf("ELF File Type: %s (0x%02X)\n", h.Type, uint16(h.Type))
	ew.printf("Machine Type: %s (0x%04X)\n", h.Machine, uint16(h.Machine))
	ew.printf("\n")
	ew.printf("ELF Class: %s\n", h.Class)
	ew.printf("Data Encoding: %s\n", h.Data)
	ew.printf("ELF Version: %d\n", h.Version)
	ew.printf("Entry Point Address: %d\n", h.Entry)
	ew.printf("Program Header Table Offset: %d\n", h.PhOff)
	ew.printf("Section Header Table Offset: %d\n", h.ShOff)
	ew.printf("ELF Header Size: %d bytes\n", h.EhSize)
	ew.printf("Program Header Table Entry Size: %d bytes\n", h.PhEntSize)
	ew.printf("Number of Program Header Table Entries: %d\n", h.PhNum)
	ew.printf("Section Header Table Entry Size: %d bytes\n", h.ShEntSize)
	ew.printf("Number of Section Header Table Entries: %d\n", h.ShNum)
	ew.printf("Section Header String Table Index: %d\n", h.ShStrNdx)

	ew.printf("\n")
	ew.title("Segment Information:")
	for _, s := range f.Segments {
		ew.printf("Segment %d:\n", s.Index)
		ew.printf("  Type: %s (0x%08X)\n", s.Type, uint32(s.Type))
		ew.printf("  Offset: %d\n", s.Offset)
		ew.printf("  Virtual Address: %d\n", s.Vaddr)
		ew.printf("  Physical Address: %d\n", s.Paddr)
		ew.printf("  File Size: %s\n", s.FileSize)
		ew.printf("  Memory Size: %s\n", s.MemSize)
		ew.printf("  Flags: %s (0x%08X)\n", elfhdr.FlagsName(policy, s.Flags), uint32(s.Flags))
		ew.printf("\n")
	}

	if checkReport != nil {
		ew.title("Header Checks:")
		for _, res := range checkReport.Results {
			ew.printf("  [%s] %s: %s\n", strings.ToUpper(string(res.Status)), res.ID, res.Message)
		}
		ew.printf("  %d checks: %d passed, %d warnings, %d skipped\n",
			checkReport.Summary.Total, checkReport.Summary.Passed,
			checkReport.Summary.Warnings, checkReport.Summary.Skipped)
	}

	return ew.err
}

type labeled struct {
	Value uint64 `json:"value"`
	Name  string `json:"name"`
}

type headerView struct {
	Raw       string  `json:"raw"`
	Magic     string  `json:"magic"`
	Class     labeled `json:"class"`
	Data      labeled `json:"data_encoding"`
	Version   uint8   `json:"version"`
	Type      labeled `json:"file_type"`
	Machine   labeled `json:"machine"`
	Entry     uint64  `json:"entry_point"`
	PhOff     uint64  `json:"phdr_offset"`
	ShOff     uint64  `json:"shdr_offset"`
	EhSize    uint16  `json:"ehsize"`
	PhEntSize uint16  `json:"phentsize"`
	PhNum     uint16  `json:"phnum"`
	ShEntSize uint16  `json:"shentsize"`
	ShNum     uint16  `json:"shnum"`
	ShStrNdx  uint16  `json:"shstrndx"`
}

type segmentView struct {
	Index    int     `json:"index"`
	Type     labeled `json:"type"`
	Offset   uint64  `json:"offset"`
	Vaddr    uint64  `json:"vaddr"`
	Paddr    uint64  `json:"paddr"`
	FileSize uint64  `json:"file_size"`
	MemSize  uint64  `json:"mem_size"`
	Flags    labeled `json:"flags"`
}

type document struct {
	Layout    string         `json:"layout"`
	ByteOrder string         `json:"byte_order"`
	Header    headerView     `json:"header"`
	Segments  []segmentView  `json:"segments"`
	Checks    *checks.Report `json:"checks,omitempty"`
}

func newDocument(f *elfhdr.File, checkReport *checks.Report, policy elfhdr.FlagsPolicy) document {
	h := f.Header
	doc := document{
		Layout: f.Layout,
		Header: headerView{
			Raw:       fmt.Sprintf("%X", h.Raw[:]),
			Magic:     fmt.Sprintf("%X", h.Magic[:]),
			Class:     labeled{Value: uint64(h.Class), Name: h.Class.String()},
			Data:      labeled{Value: uint64(h.Data), Name: h.Data.String()},
			Version:   h.Version,
			Type:      labeled{Value: uint64(h.Type), Name: h.Type.String()},
			Machine:   labeled{Value: uint64(h.Machine), Name: h.Machine.String()},
			Entry:     h.Entry,
			PhOff:     h.PhOff,
			ShOff:     h.ShOff,
			EhSize:    h.EhSize,
			PhEntSize: h.PhEntSize,
			PhNum:     h.PhNum,
			ShEntSize: h.ShEntSize,
			ShNum:     h.ShNum,
			ShStrNdx:  h.ShStrNdx,
		},
		Segments: make([]segmentView, 0, len(f.Segments)),
		Checks:   checkReport,
	}
	if f.ByteOrder != nil {
		doc.ByteOrder = f.ByteOrder.String()
	}

	for _, s := range f.Segments {
		doc.Segments = append(doc.Segments, segmentView{
			Index:    s.Index,
			Type:     labeled{Value: uint64(s.Type), Name: s.Type.String()},
			Offset:   s.Offset,
			Vaddr:    s.Vaddr,
			Paddr:    s.Paddr,
			FileSize: uint64(s.FileSize),
			MemSize:  uint64(s.MemSize),
			Flags:    labeled{Value: uint64(s.Flags), Name: elfhdr.FlagsName(policy, s.Flags)},
		})
	}
	return doc
}

func renderJSON(w io.Writer, f *elfhdr.File, checkReport *checks.Report, policy elfhdr.FlagsPolicy) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newDocument(f, checkReport, policy))
}

func renderTable(w io.Writer, f *elfhdr.File, checkReport *checks.Report, policy elfhdr.FlagsPolicy) error {
	h := f.Header
	ew := &errWriter{w: w}

	ew.title("ELF Header")
	ew.printf("%s, %s, %s, %s, version %d\n", h.Type, h.Machine, h.Class, h.Data, h.Version)
	ew.printf("entry 0x%X, %d program headers at %d, %d section headers at %d\n",
		h.Entry, h.PhNum, h.PhOff, h.ShNum, h.ShOff)
	ew.printf("\n")
	ew.title("Segments")
	if ew.err != nil {
		return ew.err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Type", "Offset", "VirtAddr", "PhysAddr", "FileSize", "MemSize", "Flags"})
	table.SetAutoWrapText(false)
	for _, s := range f.Segments {
		table.Append([]string{
			strconv.Itoa(s.Index),
			s.Type.String(),
			fmt.Sprintf("0x%X", s.Offset),
			fmt.Sprintf("0x%X", s.Vaddr),
			fmt.Sprintf("0x%X", s.Paddr),
			humanize.Bytes(uint64(s.FileSize)),
			humanize.Bytes(uint64(s.MemSize)),
			elfhdr.FlagsName(policy, s.Flags),
		})
	}
	table.Render()

	if checkReport == nil {
		return nil
	}

	ew.printf("\n")
	ew.title("Header Checks")
	if ew.err != nil {
		return ew.err
	}
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Check", "Status", "Message"})
	table.SetAutoWrapText(false)
	for _, res := range checkReport.Results {
		table.Append([]string{res.ID, string(res.Status), res.Message})
	}
	table.Render()
	return nil
}
