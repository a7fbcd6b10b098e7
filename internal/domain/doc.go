// Package domain models hydrograph (SDH) files and the metrics derived from them.
//
// # Directory Convention
//
// Hydrographs are delivered as a directory tree produced by the flood simulation
// runs. Every hydrograph file sits next to exactly one shapefile describing the
// inundated area for that scenario:
//
//	<root>/.../<floodplain>/out[_upr|_lwr]/<key>/.../<sdh file>
//	<root>/.../<floodplain>/out[_upr|_lwr]/<key>/.../<area>.shp
//
// The element directly before the first "out" element names the floodplain, the
// element directly after it is the hydrograph key. An "out_upr" or "out_lwr" element marks
// the upper or lower reach of the floodplain.
//
// Key prefixes:
//
//	Q<n>   river discharge scenario, e.g. "Q75". The file holds a hydrograph.
//	H<n>   lake level scenario, e.g. "H12345" = 123.45 m. The file is not read;
//	       the level digits are the peak and there is no volume.
//
// The geometry table for a scenario is named
//
//	geo_<floodplain>[_upr|_lwr]_<key>   e.g. "geo_lenk_lwr_q75"
//
// always lower-cased.
//
// # File Format
//
// Hydrograph files have no header. Lines starting with '#' are comments. Columns
// are separated by tabs or spaces; the first column is the time in seconds since
// the start of the event, the second the discharge in m³/s (or the level for
// lakes). Further columns are ignored.
//
// # Metrics
//
//	peak    maximum sampled discharge
//	volume  ∫ Q(t) dt between the first and last sample, rounded half to even,
//	        where Q is a not-a-knot cubic spline through the samples. Series with
//	        fewer than four samples fall back to linear interpolation.
package domain
