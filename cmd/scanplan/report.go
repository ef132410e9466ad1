package main

import (
	"github.com/arloliu/scanplan"
)

// planReport is the YAML document printed by the plan command.
// Row keys are rendered as strings.
type planReport struct {
	Digest    string             `yaml:"digest"`
	PlanKey   string             `yaml:"planKey"`
	Cost      scanplan.ScanStats `yaml:"cost"`
	Estimates estimatesView      `yaml:"estimates"`
	Affinity  []affinityView     `yaml:"affinity,omitempty"`
	Slots     []slotView         `yaml:"slots"`
	Published *publishView       `yaml:"published,omitempty"`
}

type estimatesView struct {
	ScanSizeBytes   int64 `yaml:"scanSizeBytes"`
	AvgRowSizeBytes int64 `yaml:"avgRowSizeBytes"`
	AvgColsPerRow   int64 `yaml:"avgColsPerRow"`
	Partitions      int   `yaml:"partitions"`
	SizeMapBuilt    bool  `yaml:"sizeMapBuilt"`
}

type affinityView struct {
	Endpoint string  `yaml:"endpoint"`
	Affinity float64 `yaml:"affinity"`
}

type slotView struct {
	Slot     int           `yaml:"slot"`
	Endpoint string        `yaml:"endpoint"`
	Scans    []subScanView `yaml:"scans"`
}

type subScanView struct {
	Partition string `yaml:"partition"`
	Server    string `yaml:"server"`
	StartRow  string `yaml:"startRow,omitempty"`
	StopRow   string `yaml:"stopRow,omitempty"`
}

type publishView struct {
	Bucket  string `yaml:"bucket"`
	PlanKey string `yaml:"planKey"`
	Version int64  `yaml:"version"`
}

func newPlanReport(gs *scanplan.GroupScan, endpoints []scanplan.WorkerEndpoint, a scanplan.SlotAssignment) planReport {
	snapshot := gs.Stats()
	report := planReport{
		Digest:  gs.Digest(),
		PlanKey: gs.PlanKey(),
		Cost:    gs.EstimateCost(),
		Estimates: estimatesView{
			ScanSizeBytes:   gs.ScanSizeBytes(),
			AvgRowSizeBytes: snapshot.AvgRowSizeBytes,
			AvgColsPerRow:   snapshot.AvgColsPerRow,
			Partitions:      gs.MaxParallelizationWidth(),
			SizeMapBuilt:    snapshot.PartitionSizes != nil,
		},
	}

	for _, aff := range gs.OperatorAffinity(endpoints) {
		report.Affinity = append(report.Affinity, affinityView{Endpoint: aff.Endpoint.String(), Affinity: aff.Affinity})
	}

	for i, slot := range a.Slots {
		view := slotView{Slot: i, Endpoint: endpoints[i].String(), Scans: make([]subScanView, 0, len(slot))}
		for _, sub := range slot {
			view.Scans = append(view.Scans, subScanView{
				Partition: sub.PartitionID,
				Server:    sub.Server,
				StartRow:  string(sub.StartRow),
				StopRow:   string(sub.StopRow),
			})
		}
		report.Slots = append(report.Slots, view)
	}

	return report
}
