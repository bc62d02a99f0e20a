package www

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/arpg/bobcat/coordinator"
)

// mapFeatures renders the robot's view of the map: itself, its teammates,
// beacons, blacklisted regions and the current goal path.
func mapFeatures(s coordinator.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	self := geojson.NewFeature(s.State.Pose.Position.Planar())
	self.Properties["kind"] = "robot"
	self.Properties["id"] = s.State.ID
	self.Properties["status"] = s.State.Status
	self.Properties["mode"] = s.Mode
	fc.Append(self)

	for _, n := range s.Neighbors {
		f := geojson.NewFeature(n.Pose.Position.Planar())
		f.Properties["kind"] = "neighbor"
		f.Properties["id"] = n.ID
		f.Properties["role"] = n.Role
		f.Properties["in_comm"] = n.InComm
		fc.Append(f)
	}

	for _, b := range s.Beacons {
		if !b.Active {
			continue
		}
		f := geojson.NewFeature(b.Position.Planar())
		f.Properties["kind"] = "beacon"
		f.Properties["id"] = b.ID
		f.Properties["in_comm"] = b.InComm
		fc.Append(f)
	}

	for _, p := range s.Blacklist {
		f := geojson.NewFeature(p.Position.Planar())
		f.Properties["kind"] = "blacklist"
		f.Properties["radius"] = p.Radius
		fc.Append(f)
	}

	if len(s.GoalPath) >= 2 {
		line := make(orb.LineString, 0, len(s.GoalPath))
		for _, p := range s.GoalPath {
			line = append(line, p.Planar())
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "goal_path"
		f.Properties["length"] = len(s.GoalPath)
		fc.Append(f)
	}
	return fc
}
