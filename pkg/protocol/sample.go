package protocol

import "fmt"

// Sample is the decoded, SI-unit view of one sensor reading, assembled
// by ParsePackage from whichever wire encoding produced it.
type Sample struct {
	TimestampNs     int64
	Gyro            *Vec3
	Acc             *Vec3
	Mag             *Vec3
	Quat            Quaternion
	RestDetected    bool
	MagDistDetected bool
	DeltaRad        float64
	ErrorFlags      ErrorFlags
}

// Package is a parsed sensor-data packet: the rate/encoding it came
// from plus every reconstructed sample.
type Package struct {
	Header   Header
	Encoding Encoding
	Rate     Rate
	Samples  []Sample
}

// ParsePackage converts a decoded sensor-data Packet into its SI-unit
// Package, reconstructing packed samples via gyro-integration
// extrapolation.
func ParsePackage(p Packet) (Package, error) {
	enc, rate, ok := decodeSensorHeader(p.Header())
	if !ok {
		return Package{}, fmt.Errorf("protocol: %v is not a sensor-data header", p.Header())
	}
	periodNs := int64(0)
	if hz := rate.Hz(); hz > 0 {
		periodNs = int64(1e9 / hz)
	}

	switch v := p.(type) {
	case FullPacked:
		return parseFullPacked(v, enc, rate, periodNs), nil
	case Full6DPacked:
		return parseFull6DPacked(v, enc, rate, periodNs), nil
	case QuatPacked:
		return parseQuatPacked(v, enc, rate, periodNs), nil
	case FullFixed:
		return parseFullFixed(v, enc, rate), nil
	case Full6DFixed:
		return parseFull6DFixed(v, enc, rate), nil
	case FullFloat:
		return parseFullFloat(v, enc, rate), nil
	case QuatFixed:
		return parseQuatFixed(v, enc, rate), nil
	case QuatFloat:
		return parseQuatFloat(v, enc, rate), nil
	default:
		return Package{}, fmt.Errorf("protocol: %T is not a sensor-data packet", p)
	}
}

func parseFullPacked(v FullPacked, enc Encoding, rate Rate, periodNs int64) Package {
	anchor, rest, magDist := DecodeSmallestThree(v.AnchorQuat)
	dt := float64(periodNs) / 1e9
	gyroSI := make([]Vec3, fullPackedSamples)
	for i, g := range v.Gyro {
		gyroSI[i] = decodeVec3(g, ScaleGyr)
	}
	quats := ExtrapolateQuaternions(anchor, gyroSI[1:], dt)

	samples := make([]Sample, fullPackedSamples)
	for i := 0; i < fullPackedSamples; i++ {
		samples[i] = Sample{
			TimestampNs:     v.TimestampNs + int64(i)*periodNs,
			Gyro:            vecPtr(gyroSI[i]),
			Acc:             vecPtr(decodeVec3(v.Acc[i], ScaleAcc)),
			Mag:             vecPtr(decodeVec3(v.Mag[i], ScaleMag)),
			Quat:            quats[i],
			RestDetected:    rest,
			MagDistDetected: magDist,
			DeltaRad:        float64(v.DeltaRaw) * ScaleDelta,
			ErrorFlags:      v.ErrorFlags,
		}
	}
	return Package{Header: v.Head, Encoding: enc, Rate: rate, Samples: samples}
}

func parseFull6DPacked(v Full6DPacked, enc Encoding, rate Rate, periodNs int64) Package {
	anchor, rest, magDist := DecodeSmallestThree(v.AnchorQuat)
	dt := float64(periodNs) / 1e9
	gyroSI := make([]Vec3, fullPackedSamples)
	for i, g := range v.Gyro {
		gyroSI[i] = decodeVec3(g, ScaleGyr)
	}
	quats := ExtrapolateQuaternions(anchor, gyroSI[1:], dt)

	samples := make([]Sample, fullPackedSamples)
	for i := 0; i < fullPackedSamples; i++ {
		samples[i] = Sample{
			TimestampNs:     v.TimestampNs + int64(i)*periodNs,
			Gyro:            vecPtr(gyroSI[i]),
			Acc:             vecPtr(decodeVec3(v.Acc[i], ScaleAcc)),
			Quat:            quats[i],
			RestDetected:    rest,
			MagDistDetected: magDist,
			DeltaRad:        float64(v.DeltaRaw) * ScaleDelta,
			ErrorFlags:      v.ErrorFlags,
		}
	}
	return Package{Header: v.Head, Encoding: enc, Rate: rate, Samples: samples}
}

func parseQuatPacked(v QuatPacked, enc Encoding, rate Rate, periodNs int64) Package {
	anchor, rest, magDist := DecodeSmallestThree(v.AnchorQuat)
	dt := float64(periodNs) / 1e9
	gyroSI := make([]Vec3, len(v.Gyro))
	for i, g := range v.Gyro {
		gyroSI[i] = decodeVec3(g, ScaleGyr)
	}
	quats := ExtrapolateQuaternions(anchor, gyroSI, dt)

	samples := make([]Sample, quatPackedSamples)
	for i := 0; i < quatPackedSamples; i++ {
		samples[i] = Sample{
			TimestampNs:     v.TimestampNs + int64(i)*periodNs,
			Quat:            quats[i],
			RestDetected:    rest,
			MagDistDetected: magDist,
			DeltaRad:        float64(v.DeltaRaw[i]) * ScaleDelta,
			ErrorFlags:      v.ErrorFlags[i],
		}
	}
	return Package{Header: v.Head, Encoding: enc, Rate: rate, Samples: samples}
}

func parseFullFixed(v FullFixed, enc Encoding, rate Rate) Package {
	q, rest, magDist := DecodeSmallestThree(v.Quat)
	s := Sample{
		TimestampNs:     v.TimestampNs,
		Gyro:            vecPtr(decodeVec3(v.Gyro, ScaleGyr)),
		Acc:             vecPtr(decodeVec3(v.Acc, ScaleAcc)),
		Mag:             vecPtr(decodeVec3(v.Mag, ScaleMag)),
		Quat:            q,
		RestDetected:    rest,
		MagDistDetected: magDist,
		DeltaRad:        float64(v.DeltaRaw) * ScaleDelta,
		ErrorFlags:      v.ErrorFlags,
	}
	return Package{Header: v.Head, Encoding: enc, Rate: rate, Samples: []Sample{s}}
}

func parseFull6DFixed(v Full6DFixed, enc Encoding, rate Rate) Package {
	q, rest, magDist := DecodeSmallestThree(v.Quat)
	s := Sample{
		TimestampNs:     v.TimestampNs,
		Gyro:            vecPtr(decodeVec3(v.Gyro, ScaleGyr)),
		Acc:             vecPtr(decodeVec3(v.Acc, ScaleAcc)),
		Quat:            q,
		RestDetected:    rest,
		MagDistDetected: magDist,
		DeltaRad:        float64(v.DeltaRaw) * ScaleDelta,
		ErrorFlags:      v.ErrorFlags,
	}
	return Package{Header: v.Head, Encoding: enc, Rate: rate, Samples: []Sample{s}}
}

func parseFullFloat(v FullFloat, enc Encoding, rate Rate) Package {
	s := Sample{
		TimestampNs: v.TimestampNs,
		Gyro:        &Vec3{X: float64(v.Gyro[0]), Y: float64(v.Gyro[1]), Z: float64(v.Gyro[2])},
		Acc:         &Vec3{X: float64(v.Acc[0]), Y: float64(v.Acc[1]), Z: float64(v.Acc[2])},
		Mag:         &Vec3{X: float64(v.Mag[0]), Y: float64(v.Mag[1]), Z: float64(v.Mag[2])},
		Quat:        Quaternion{W: float64(v.Quat[0]), X: float64(v.Quat[1]), Y: float64(v.Quat[2]), Z: float64(v.Quat[3])},
		DeltaRad:    float64(v.Delta),
		ErrorFlags:  v.ErrorFlags,
	}
	return Package{Header: v.Head, Encoding: enc, Rate: rate, Samples: []Sample{s}}
}

func parseQuatFixed(v QuatFixed, enc Encoding, rate Rate) Package {
	q, rest, magDist := DecodeSmallestThree(v.Quat)
	s := Sample{
		TimestampNs:     v.TimestampNs,
		Quat:            q,
		RestDetected:    rest,
		MagDistDetected: magDist,
		DeltaRad:        float64(v.DeltaRaw) * ScaleDelta,
		ErrorFlags:      v.ErrorFlags,
	}
	return Package{Header: v.Head, Encoding: enc, Rate: rate, Samples: []Sample{s}}
}

func parseQuatFloat(v QuatFloat, enc Encoding, rate Rate) Package {
	s := Sample{
		TimestampNs: v.TimestampNs,
		Quat:        Quaternion{W: float64(v.Quat[0]), X: float64(v.Quat[1]), Y: float64(v.Quat[2]), Z: float64(v.Quat[3])},
		DeltaRad:    float64(v.Delta),
		ErrorFlags:  v.ErrorFlags,
	}
	return Package{Header: v.Head, Encoding: enc, Rate: rate, Samples: []Sample{s}}
}

func vecPtr(v Vec3) *Vec3 { return &v }
