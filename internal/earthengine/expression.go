package earthengine

// Earth Engine REST expressions are trees of function invocations and
// constants. Only the handful of nodes the NDVI sampler needs are built here.

type value map[string]any

func constant(v any) value {
	return value{"constantValue": v}
}

func invoke(name string, args map[string]value) value {
	return value{"functionInvocationValue": map[string]any{
		"functionName": name,
		"arguments":    args,
	}}
}

type expression struct {
	Result string           `json:"result"`
	Values map[string]value `json:"values"`
}

func newExpression(root value) expression {
	return expression{Result: "0", Values: map[string]value{"0": root}}
}

func rectangle(r Region) value {
	return invoke("GeometryConstructors.Rectangle", map[string]value{
		"coordinates": constant([]float64{r.West, r.South, r.East, r.North}),
		"geodesic":    constant(false),
	})
}

func filtered(collection value, filter value) value {
	return invoke("Collection.filter", map[string]value{
		"collection": collection,
		"filter":     filter,
	})
}

// landsatComposite loads the collection, filters it by date, bounds and cloud
// cover, and takes the per-pixel median.
func landsatComposite(req SampleRequest) value {
	geometry := rectangle(req.Region)

	c := invoke("ImageCollection.load", map[string]value{
		"id": constant(landsatCollection),
	})
	c = filtered(c, invoke("Filter.dateRangeContains", map[string]value{
		"leftValue": invoke("DateRange", map[string]value{
			"start": constant(req.StartDate),
			"end":   constant(req.EndDate),
		}),
		"rightField": constant("system:time_start"),
	}))
	c = filtered(c, invoke("Filter.intersects", map[string]value{
		"leftField":  constant(".all"),
		"rightValue": geometry,
	}))
	c = filtered(c, invoke("Filter.lessThan", map[string]value{
		"leftField":  constant("CLOUD_COVER"),
		"rightValue": constant(req.MaxCloudCover),
	}))
	return invoke("reduce.median", map[string]value{"collection": c})
}

// ndviSampleExpression builds: median composite -> NDVI band from SR_B5/SR_B4
// added to the visible bands -> random point sample with geometries.
func ndviSampleExpression(req SampleRequest) expression {
	composite := landsatComposite(req)

	ndvi := invoke("Image.rename", map[string]value{
		"input": invoke("Image.normalizedDifference", map[string]value{
			"input":     composite,
			"bandNames": constant([]string{"SR_B5", "SR_B4"}),
		}),
		"names": constant([]string{"NDVI"}),
	})
	visible := invoke("Image.select", map[string]value{
		"input":         composite,
		"bandSelectors": constant([]string{"SR_B4", "SR_B3", "SR_B2"}),
	})
	image := invoke("Image.addBands", map[string]value{
		"dstImg": visible,
		"srcImg": ndvi,
	})

	sample := invoke("Image.sample", map[string]value{
		"image":      image,
		"region":     rectangle(req.Region),
		"scale":      constant(req.Scale),
		"numPixels":  constant(req.NumPixels),
		"seed":       constant(req.Seed),
		"geometries": constant(true),
	})
	return newExpression(sample)
}
