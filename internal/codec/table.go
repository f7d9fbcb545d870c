package codec

import (
	"strconv"

	"rackplan/internal/domain"
)

// Columns is the fixed column order of the device table
var Columns = []string{
	"Category", "Code", "Name", "Brand", "Model", "Ports", "Size", "ManagementIP", "Serial",
	"BeforeRack", "BeforeStart", "BeforeEnd", "AfterRack", "AfterStart", "AfterEnd",
	"Mounted", "Cabled", "Powered", "Tested",
}

// Row flattens a device into table cells in Columns order. Unplaced phases
// give empty cells.
func Row(d domain.Device) []string {
	row := []string{
		string(d.Category), d.Code, d.Name, d.Brand, d.Model,
		strconv.Itoa(d.Ports), strconv.Itoa(d.Size), d.ManagementIP, d.Serial,
	}
	row = append(row, placementCells(d.Before)...)
	row = append(row, placementCells(d.After)...)
	for _, flag := range domain.Flags() {
		row = append(row, strconv.FormatBool(d.Status.Get(flag)))
	}
	return row
}

func placementCells(p *domain.Placement) []string {
	if p == nil {
		return []string{"", "", ""}
	}
	return []string{p.RackID, strconv.Itoa(p.Start), strconv.Itoa(p.End)}
}
