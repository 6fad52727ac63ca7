// Package analysis derives summary figures from recorded runs.
//
//   - [SurfaceProfile]: height of the topmost occupied cell per column
//   - [ReposeAngle]: flank steepness of the tallest pile in a profile
//   - [SettleTick]: first tick after which every particle stays at rest
//   - [SummarizeFractures]: fracture counts by cause
//
// A granular material that slides diagonally settles into piles whose
// flanks approach 45 degrees:
//
//	profile := analysis.SurfaceProfile(frames[len(frames)-1], analysis.FreeParticles)
//	angle := analysis.ReposeAngle(profile)
package analysis
