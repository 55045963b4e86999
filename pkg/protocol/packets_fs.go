package protocol

// filenameFieldLen is the fixed, null-padded filename field width:
// filenames are ASCII, at most 64 characters, in a 65-byte field.
const filenameFieldLen = 65

func init() {
	registerEmpty(CmdFsListFiles)
	register(DataFsFileCount, 2, decodeFsFileCount, encodeFsFileCount)
	register(DataFsFile, filenameFieldLen+4, decodeFsFile, encodeFsFile)

	register(CmdFsGetBytes, filenameFieldLen+8, decodeFsGetBytes, encodeFsGetBytes)
	register(DataFsBytes, -1, decodeFsBytes, encodeFsBytes)
	registerEmpty(CmdFsStopGetBytes)
	registerEmpty(AckFsStopGetBytes)

	register(CmdFsDeleteFile, filenameFieldLen, decodeFsDeleteFile, encodeFsDeleteFile)
	registerEmpty(AckFsDeleteFile)

	registerEmpty(CmdFsFormat)
	registerEmpty(AckFsFormat)
}

// FsFileCount announces how many DataFsFile entries will follow a
// CmdFsListFiles request.
type FsFileCount struct {
	Count uint16
}

func (FsFileCount) Header() Header { return DataFsFileCount }

func decodeFsFileCount(payload []byte) (Packet, error) {
	return FsFileCount{Count: newReader(payload).u16()}, nil
}

func encodeFsFileCount(p Packet) ([]byte, error) {
	f := p.(FsFileCount)
	w := newWriter(2)
	w.u16(f.Count)
	return w.buf, nil
}

// FsFile is one DataFsFile directory entry.
type FsFile struct {
	Name      string
	SizeBytes uint32
}

func (FsFile) Header() Header { return DataFsFile }

func decodeFsFile(payload []byte) (Packet, error) {
	r := newReader(payload)
	name := trimASCII(r.bytes(filenameFieldLen))
	size := r.u32()
	return FsFile{Name: name, SizeBytes: size}, nil
}

func encodeFsFile(p Packet) ([]byte, error) {
	f := p.(FsFile)
	w := newWriter(filenameFieldLen + 4)
	w.bytes(fixedASCII(f.Name, filenameFieldLen))
	w.u32(f.SizeBytes)
	return w.buf, nil
}

// FsGetBytes is the CmdFsGetBytes request: {filename, startPos, endPos},
// a byte-range read of one on-device file addressed by name.
type FsGetBytes struct {
	Name     string
	StartPos uint32
	EndPos   uint32
}

func (FsGetBytes) Header() Header { return CmdFsGetBytes }

func decodeFsGetBytes(payload []byte) (Packet, error) {
	r := newReader(payload)
	name := trimASCII(r.bytes(filenameFieldLen))
	start := r.u32()
	end := r.u32()
	return FsGetBytes{Name: name, StartPos: start, EndPos: end}, nil
}

func encodeFsGetBytes(p Packet) ([]byte, error) {
	g := p.(FsGetBytes)
	w := newWriter(filenameFieldLen + 8)
	w.bytes(fixedASCII(g.Name, filenameFieldLen))
	w.u32(g.StartPos)
	w.u32(g.EndPos)
	return w.buf, nil
}

// FsBytes is one DataFsBytes chunk of a file download: the offset this
// chunk starts at (for gap detection/retry) plus the chunk's bytes.
// Variable-length — up to 232 bytes of data so offset(4)+data(232)
// totals the 236-byte payload ceiling exactly.
type FsBytes struct {
	OffsetBytes uint32
	Data        []byte
}

func (FsBytes) Header() Header { return DataFsBytes }

func decodeFsBytes(payload []byte) (Packet, error) {
	if len(payload) < 4 {
		return nil, &Error{Kind: ErrDecodeError, Header: DataFsBytes, Message: "payload shorter than offset field"}
	}
	r := newReader(payload)
	off := r.u32()
	data := r.bytes(len(payload) - 4)
	return FsBytes{OffsetBytes: off, Data: data}, nil
}

func encodeFsBytes(p Packet) ([]byte, error) {
	f := p.(FsBytes)
	w := newWriter(4 + len(f.Data))
	w.u32(f.OffsetBytes)
	w.bytes(f.Data)
	return w.buf, nil
}

// FsDeleteFile identifies a file to delete by its fixed-width name.
type FsDeleteFile struct {
	Name string
}

func (FsDeleteFile) Header() Header { return CmdFsDeleteFile }

func decodeFsDeleteFile(payload []byte) (Packet, error) {
	return FsDeleteFile{Name: trimASCII(newReader(payload).bytes(filenameFieldLen))}, nil
}

func encodeFsDeleteFile(p Packet) ([]byte, error) {
	f := p.(FsDeleteFile)
	w := newWriter(filenameFieldLen)
	w.bytes(fixedASCII(f.Name, filenameFieldLen))
	return w.buf, nil
}
