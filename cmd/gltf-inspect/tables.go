package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/olekukonko/tablewriter"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

func newTable(buf *bytes.Buffer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)
	return table
}

func infoTable(s *scene.Scene) string {
	var buf bytes.Buffer
	st := s.Stats()
	table := newTable(&buf, "Property", "Value")
	table.Append([]string{"Scene", s.Name})
	table.Append([]string{"Nodes", strconv.Itoa(st.Nodes)})
	table.Append([]string{"Meshes", strconv.Itoa(st.Meshes)})
	table.Append([]string{"Primitives", strconv.Itoa(st.Primitives)})
	table.Append([]string{"Materials", strconv.Itoa(st.Materials)})
	table.Append([]string{"Textures", strconv.Itoa(st.Textures)})
	table.Append([]string{"Skins", strconv.Itoa(st.Skins)})
	table.Append([]string{"Animations", strconv.Itoa(st.Animations)})
	table.Append([]string{"Vertices", fmt.Sprint(st.Vertices)})
	table.Append([]string{"Indices", fmt.Sprint(st.Indices)})
	table.Append([]string{"Geometry", fmtBytes(st.GeometrySize)})
	if s.Bounds.Valid {
		table.Append([]string{"Bounds", fmtVec(s.Bounds.Min) + " .. " + fmtVec(s.Bounds.Max)})
	} else {
		table.Append([]string{"Bounds", "none"})
	}
	if len(s.ExtensionsUsed) > 0 {
		table.Append([]string{"Extensions", strings.Join(s.ExtensionsUsed, ", ")})
	}
	table.Render()
	return buf.String()
}

func diagnosticsTable(s *scene.Scene) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Severity", "Subject", "Message")
	for _, d := range s.Diagnostics {
		table.Append([]string{d.Severity.String(), d.Subject, d.Message})
	}
	table.Render()
	return buf.String()
}

func nodesTable(s *scene.Scene) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Node", "Name", "Parent", "Children", "Mesh", "Skin", "Translation", "World")
	for _, i := range s.LinearNodes {
		n := &s.Nodes[i]
		mesh := "-"
		if n.Mesh != nil {
			mesh = fmt.Sprintf("%s (%d prims)", n.Mesh.Name, len(n.Mesh.Primitives))
		}
		skin := "-"
		if common.InRange(n.Skin, len(s.Skins)) {
			skin = strconv.Itoa(n.Skin)
		}
		parent := "-"
		if n.Parent >= 0 {
			parent = strconv.Itoa(n.Parent)
		}
		table.Append([]string{
			strconv.Itoa(i),
			n.Name,
			parent,
			fmtInts(n.Children),
			mesh,
			skin,
			fmtVec(n.Translation),
			fmtVec(common.TransformPoint(s.WorldMatrix(i), mgl32.Vec3{})),
		})
	}
	table.Render()
	return buf.String()
}

func materialsTable(s *scene.Scene) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Material", "Name", "Workflow", "Alpha", "Cutoff", "Double sided", "Textures")
	for i := range s.Materials {
		m := &s.Materials[i]
		slots := m.TextureSlots()
		table.Append([]string{
			strconv.Itoa(i),
			m.Name,
			m.Workflow.String(),
			m.AlphaMode.String(),
			strconv.FormatFloat(float64(m.AlphaCutoff), 'g', 3, 32),
			strconv.FormatBool(m.DoubleSided),
			fmtInts(slots[:]),
		})
	}
	table.Render()
	return buf.String()
}

func animationsTable(s *scene.Scene) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Animation", "Name", "Channels", "Samplers", "Start", "End")
	for i := range s.Animations {
		a := &s.Animations[i]
		table.Append([]string{
			strconv.Itoa(i),
			a.Name,
			strconv.Itoa(len(a.Channels)),
			strconv.Itoa(len(a.Samplers)),
			strconv.FormatFloat(float64(a.Start), 'f', 3, 32),
			strconv.FormatFloat(float64(a.End), 'f', 3, 32),
		})
	}
	table.Render()
	return buf.String()
}

func fmtVec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%.3g, %.3g, %.3g)", v[0], v[1], v[2])
}

func fmtInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func fmtBytes(n uint64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
